// Command formflow populates tax forms from pre-extracted source documents.
//
// Each document argument must have a sidecar "<document>.json" next to it.
// The run summary is printed to stdout as JSON; logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"formflow/internal/app"
	"formflow/internal/config"
	"formflow/internal/diagnostic"
	"formflow/internal/form"
	"formflow/internal/mapping"
	"formflow/internal/pipeline"
	"formflow/internal/rules"
	"formflow/internal/sidecar"
	"formflow/internal/taxdoc"
)

const usage = `formflow - populate tax forms from pre-extracted documents

usage: formflow [flags] document...
       formflow -check-mappings [-mappings file]

flags:
`

type options struct {
	configPath    string
	outputDir     string
	templatesDir  string
	mappingsFile  string
	ledgerPath    string
	forms         string
	concurrency   int
	logLevel      string
	debugDump     string
	checkMappings bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("formflow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var o options
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.outputDir, "out", "", "directory for populated structures (overrides config)")
	fs.StringVar(&o.templatesDir, "templates", "", "directory of blank form templates (overrides config)")
	fs.StringVar(&o.mappingsFile, "mappings", "", "translation tables file (overrides config)")
	fs.StringVar(&o.ledgerPath, "ledger", "", "SQLite run ledger (overrides config)")
	fs.StringVar(&o.forms, "forms", "", "comma-separated forms to process instead of detecting them")
	fs.IntVar(&o.concurrency, "concurrency", 0, "documents extracted at once (overrides config)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	fs.StringVar(&o.debugDump, "debug-dump", "", "write the grouped document records to this file")
	fs.BoolVar(&o.checkMappings, "check-mappings", false, "validate the translation tables and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintln(stderr, "formflow:", err)
		return 2
	}

	if o.checkMappings {
		return checkMappings(cfg.MappingsFile, stdout, stderr)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	forms, err := parseForms(o.forms)
	if err != nil {
		fmt.Fprintln(stderr, "formflow:", err)
		return 2
	}

	lvl, _ := cfg.Level()
	log := app.NewLogger(stderr, lvl)

	a, err := app.Open(cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "formflow:", err)
		return 1
	}
	defer a.Close()

	popts := pipeline.Options{
		Concurrency: cfg.Concurrency,
		Forms:       forms,
		Logger:      log,
	}

	if a.Ledger != nil {
		popts.Recorder = a.Ledger
	}

	if o.debugDump != "" {
		f, err := os.Create(o.debugDump)
		if err != nil {
			fmt.Fprintln(stderr, "formflow:", err)
			return 1
		}
		defer f.Close()

		popts.DebugWriter = f
	}

	src := sidecar.Dir{}
	popts.Source = src

	p, err := pipeline.New(a.Schedule, src, src, popts)
	if err != nil {
		fmt.Fprintln(stderr, "formflow:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	refs := make([]taxdoc.DocumentRef, fs.NArg())
	for i, arg := range fs.Args() {
		refs[i] = taxdoc.DocumentRef(arg)
	}

	sum, runErr := p.Run(ctx, refs)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(sum); err != nil {
		fmt.Fprintln(stderr, "formflow:", err)
		return 1
	}

	if runErr != nil || sum.Status == pipeline.StatusFailed {
		return 1
	}

	return 0
}

func loadConfig(o options) (*config.Config, error) {
	cfg := config.Defaults()

	if o.configPath != "" {
		var err error

		cfg, err = config.LoadFile(o.configPath)
		if err != nil {
			return nil, err
		}
	}

	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}

	if o.templatesDir != "" {
		cfg.TemplatesDir = o.templatesDir
	}

	if o.mappingsFile != "" {
		cfg.MappingsFile = o.mappingsFile
	}

	if o.ledgerPath != "" {
		cfg.LedgerPath = o.ledgerPath
	}

	if o.concurrency != 0 {
		cfg.Concurrency = o.concurrency
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseForms splits a comma-separated list and checks each name against the
// rule registry.
func parseForms(s string) ([]form.Type, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	reg := rules.Default()

	var out []form.Type

	for _, part := range strings.Split(s, ",") {
		t := form.Type(strings.TrimSpace(part))
		if t == "" {
			continue
		}

		if _, ok := reg.Rule(t); !ok {
			return nil, fmt.Errorf("unknown form %q", t)
		}

		out = append(out, t)
	}

	return out, nil
}

func checkMappings(path string, stdout, stderr io.Writer) int {
	var (
		mf  *mapping.MappingFile
		err error
	)

	if path == "" {
		mf, err = mapping.Default()
	} else {
		mf, err = mapping.LoadFile(path)
	}

	if err != nil {
		fmt.Fprintln(stderr, "formflow:", err)
		return 1
	}

	diags := mapping.Validate(mf, mapping.DefaultRegistry(), rules.Default().FormKeys())

	for _, list := range [][]diagnostic.Diagnostic{diags.Errors, diags.Warnings, diags.Infos} {
		for _, d := range list {
			fmt.Fprintf(stdout, "%s: %s\n", d.Severity, d)
		}
	}

	fmt.Fprintf(stdout, "%d error(s), %d warning(s), %d info(s)\n",
		len(diags.Errors), len(diags.Warnings), len(diags.Infos))

	if diags.HasErrors() {
		return 1
	}

	return 0
}
