// Package app assembles the run collaborators from a Config. Both binaries
// build through Open so the CLI and the server behave the same.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"formflow/internal/calc"
	"formflow/internal/config"
	"formflow/internal/diagnostic"
	"formflow/internal/form"
	"formflow/internal/ledger"
	"formflow/internal/mapping"
	"formflow/internal/rules"
	"formflow/internal/schedule"
	"formflow/internal/validate"
)

// App holds the long-lived collaborators of a process.
type App struct {
	Config   *config.Config
	Schedule *schedule.Context
	// Ledger is nil when the config has no ledger_path.
	Ledger *ledger.Store
	Log    *slog.Logger
}

// NewLogger returns a JSON logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Open validates the translation tables against the rule registry and builds
// the scheduling context. Mapping problems of error severity abort; warnings
// are logged.
func Open(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	reg := rules.Default()

	mf, err := loadMappings(cfg.MappingsFile)
	if err != nil {
		return nil, err
	}

	transforms := mapping.DefaultRegistry()

	diags := mapping.Validate(mf, transforms, reg.FormKeys())
	logDiagnostics(log, diags)

	if err := diags.Error(); err != nil {
		return nil, fmt.Errorf("invalid mapping tables: %w", err)
	}

	mapper, err := mapping.NewMapper(mf, transforms)
	if err != nil {
		return nil, fmt.Errorf("mapping tables: %w", err)
	}

	var loader form.Loader = schedule.SkeletonLoader(mapper, reg.Precedence())
	if cfg.TemplatesDir != "" {
		loader = form.DirLoader{Dir: cfg.TemplatesDir}
	}

	sc := &schedule.Context{
		Rules:  reg,
		Mapper: mapper,
		Engine: calc.NewEngine(cfg.Tax),
		Loader: loader,
		Logger: log,

		Validator: validate.Default(),
	}

	if cfg.OutputDir != "" {
		sc.Sink = schedule.DirSink{Dir: cfg.OutputDir}
	}

	a := &App{Config: cfg, Schedule: sc, Log: log}

	if cfg.LedgerPath != "" {
		a.Ledger, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
	}

	log.Info("formflow ready",
		"tax_year", cfg.Tax.TaxYear,
		"templates", describe(cfg.TemplatesDir, "skeleton"),
		"output", describe(cfg.OutputDir, "disabled"),
		"ledger", describe(cfg.LedgerPath, "disabled"))

	return a, nil
}

// Close releases the ledger.
func (a *App) Close() error {
	if a.Ledger == nil {
		return nil
	}

	return a.Ledger.Close()
}

func loadMappings(path string) (*mapping.MappingFile, error) {
	if path == "" {
		return mapping.Default()
	}

	mf, err := mapping.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapping tables: %w", err)
	}

	return mf, nil
}

func logDiagnostics(log *slog.Logger, d *diagnostic.Diagnostics) {
	for _, w := range d.Warnings {
		log.Warn("mapping table", "code", w.Code, "form", w.Form, "key", w.Key, "message", w.Message)
	}

	for _, e := range d.Errors {
		log.Error("mapping table", "code", e.Code, "form", e.Form, "key", e.Key, "message", e.Message)
	}
}

func describe(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}
