// Package config loads the formflow run configuration from YAML.
//
// A file only needs the keys it changes: it is decoded on top of Defaults,
// so absent scalars keep their default, maps gain or replace entries and
// lists are replaced whole. Unknown keys are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"formflow/internal/calc"
)

// Config is the read-only configuration of one process.
type Config struct {
	// TemplatesDir holds blank form templates; empty synthesises skeletons
	// from the mapping tables.
	TemplatesDir string `yaml:"templates_dir"`
	// OutputDir receives populated structures; empty disables writing.
	OutputDir string `yaml:"output_dir"`
	// MappingsFile replaces the built-in translation tables when set.
	MappingsFile string `yaml:"mappings_file"`
	// LedgerPath is the SQLite run ledger; empty disables the ledger.
	LedgerPath  string `yaml:"ledger_path"`
	Concurrency int    `yaml:"concurrency"`
	LogLevel    string `yaml:"log_level"`
	HTTP        HTTP   `yaml:"http"`

	Tax *calc.Parameters `yaml:"tax"`
}

// HTTP configures formflowd.
type HTTP struct {
	Addr string `yaml:"addr"`
	// DocumentRoot confines document refs submitted over HTTP.
	DocumentRoot string `yaml:"document_root"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		OutputDir:   "output",
		Concurrency: 4,
		LogLevel:    "info",
		HTTP:        HTTP{Addr: ":8080", DocumentRoot: "."},
		Tax:         calc.Default2023(),
	}
}

// LoadFile reads and parses the YAML configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes data over Defaults and validates the result. Empty input
// yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	// An empty root would let API refs name any file on the host.
	if strings.TrimSpace(c.HTTP.DocumentRoot) == "" {
		return errors.New("http.document_root must not be empty")
	}

	if c.Tax == nil {
		return errors.New("tax parameters are missing")
	}

	return validateTax(c.Tax)
}

func validateTax(p *calc.Parameters) error {
	if _, ok := p.StandardDeduction[calc.Single]; !ok {
		return errors.New("tax: standard_deduction has no single amount")
	}

	if len(p.Brackets[calc.Single]) == 0 {
		return errors.New("tax: brackets have no single schedule")
	}

	for fs, bands := range p.Brackets {
		if len(bands) == 0 {
			return fmt.Errorf("tax: brackets for %s are empty", fs)
		}

		if !bands[0].Over.IsZero() {
			return fmt.Errorf("tax: brackets for %s must start at 0", fs)
		}

		for i := 1; i < len(bands); i++ {
			if !bands[i].Over.GreaterThan(bands[i-1].Over) {
				return fmt.Errorf("tax: brackets for %s are not ascending at band %d", fs, i+1)
			}
		}
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}

	return lvl, nil
}

// Marshal serializes a Config to YAML.
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}
