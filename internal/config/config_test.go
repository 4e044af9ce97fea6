package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/calc"
)

func TestParse_EmptyGivesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
}

func TestParse_Overlay(t *testing.T) {
	cfg, err := Parse([]byte(`
templates_dir: forms
ledger_path: runs.db
concurrency: 8
log_level: debug
http:
  addr: 127.0.0.1:9000
tax:
  tax_year: 2024
  standard_deduction:
    single: 14600
  salt_cap: "12000"
`))
	require.NoError(t, err)

	assert.Equal(t, "forms", cfg.TemplatesDir)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "runs.db", cfg.LedgerPath)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, ".", cfg.HTTP.DocumentRoot)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	assert.Equal(t, 2024, cfg.Tax.TaxYear)
	assert.True(t, decimal.NewFromInt(14600).Equal(cfg.Tax.StandardDeduction[calc.Single]))
	assert.True(t, decimal.NewFromInt(12000).Equal(cfg.Tax.SALTCap))

	// Untouched entries keep their defaults.
	assert.True(t, decimal.NewFromInt(27700).Equal(cfg.Tax.StandardDeduction[calc.MarriedFilingJointly]))
	assert.Len(t, cfg.Tax.Brackets[calc.Single], 7)
}

func TestParse_ReplacesBracketSchedule(t *testing.T) {
	cfg, err := Parse([]byte(`
tax:
  brackets:
    single:
      - {over: 0, rate: 0.1}
      - {over: 10000, rate: 0.2}
`))
	require.NoError(t, err)

	single := cfg.Tax.Brackets[calc.Single]
	require.Len(t, single, 2)
	assert.True(t, decimal.RequireFromString("0.2").Equal(single[1].Rate))

	// 20000 taxable: 10000 at 10% plus 10000 at 20%.
	assert.True(t, decimal.NewFromInt(3000).Equal(cfg.Tax.Tax(decimal.NewFromInt(20000), calc.Single)))
	assert.Len(t, cfg.Tax.Brackets[calc.HeadOfHousehold], 7)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "templates: x\n", "field templates not found"},
		{"bad yaml", "concurrency: [\n", "failed to parse config YAML"},
		{"zero concurrency", "concurrency: 0\n", "concurrency must be at least 1"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"empty document root", "http:\n  document_root: \"\"\n", "http.document_root must not be empty"},
		{"blank document root", "http:\n  document_root: \"  \"\n", "http.document_root must not be empty"},
		{"bad amount", "tax:\n  salt_cap: lots\n", "failed to parse config YAML"},
		{"empty schedule", "tax:\n  brackets:\n    head_of_household: []\n", "head_of_household are empty"},
		{"nonzero start", "tax:\n  brackets:\n    single:\n      - {over: 5, rate: 0.1}\n", "must start at 0"},
		{
			"descending",
			"tax:\n  brackets:\n    single:\n      - {over: 0, rate: 0.1}\n      - {over: 0, rate: 0.2}\n",
			"not ascending at band 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: out\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDir)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestMarshal_RoundTrip(t *testing.T) {
	data, err := Marshal(Defaults())
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, Defaults().HTTP, cfg.HTTP)
	assert.Equal(t, 2023, cfg.Tax.TaxYear)
	assert.True(t, decimal.NewFromInt(13850).Equal(cfg.Tax.StandardDeductionFor(calc.Single)))
	assert.True(t, decimal.RequireFromString("0.9235").Equal(cfg.Tax.SelfEmployment.NetEarningsFactor))
}
