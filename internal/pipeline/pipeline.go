package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"formflow/internal/form"
	"formflow/internal/schedule"
	"formflow/internal/taxdoc"
)

// ErrNoInput is returned when a run has no valid source document.
var ErrNoInput = errors.New("no valid input documents")

// DefaultConcurrency bounds the extraction fan-out when Options leaves it unset.
const DefaultConcurrency = 4

// Classifier assigns a document type to a source document.
type Classifier interface {
	Classify(ctx context.Context, ref taxdoc.DocumentRef) (taxdoc.DocType, error)
}

// Extractor returns the per-page extraction results of a source document,
// keyed by 1-based page number. A page that could not be read carries Err.
type Extractor interface {
	Extract(ctx context.Context, ref taxdoc.DocumentRef, docType taxdoc.DocType) (map[int]taxdoc.Page, error)
}

// Source checks that a document exists and is readable before it enters a run.
type Source interface {
	Check(ref taxdoc.DocumentRef) error
}

// Recorder persists a finished run.
type Recorder interface {
	Record(ctx context.Context, s *Summary) error
}

// Options tunes a Pipeline. The zero value is usable.
type Options struct {
	// Concurrency bounds how many documents are classified and extracted at
	// once. Values below 1 select DefaultConcurrency.
	Concurrency int

	// Forms overrides form determination when non-empty.
	Forms []form.Type

	Source   Source
	Recorder Recorder
	Logger   *slog.Logger

	// SinkFor, when set, replaces the scheduling context's sink with one
	// chosen per run, so concurrent runs do not share an output location.
	SinkFor func(runID uuid.UUID) schedule.Sink

	// DebugWriter receives a dump of the grouped records of every run.
	DebugWriter io.Writer
}

// Pipeline runs documents through extraction and the form scheduler.
type Pipeline struct {
	sched      *schedule.Context
	runner     *schedule.Runner
	classifier Classifier
	extractor  Extractor
	canon      *taxdoc.Canonicalizer
	opts       Options
	log        *slog.Logger
}

// New builds a pipeline around a scheduling context.
func New(sc *schedule.Context, cl Classifier, ex Extractor, opts Options) (*Pipeline, error) {
	if cl == nil || ex == nil {
		return nil, fmt.Errorf("pipeline needs a classifier and an extractor")
	}

	runner, err := schedule.NewRunner(sc)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}

	log := opts.Logger
	if log == nil {
		log = sc.Logger
	}

	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		sched:      sc,
		runner:     runner,
		classifier: cl,
		extractor:  ex,
		canon:      taxdoc.NewCanonicalizer(sc.Rules.KnownKeys()),
		opts:       opts,
		log:        log,
	}, nil
}

// Run processes refs and returns the run summary. The only error is
// ErrNoInput, returned together with a FAILED summary; every other problem is
// recorded in the summary. Cancelling ctx stops the extraction stage only:
// documents not yet extracted are reported as extraction errors and the
// forms are still processed from what was gathered.
func (p *Pipeline) Run(ctx context.Context, refs []taxdoc.DocumentRef) (*Summary, error) {
	sum := newSummary()
	log := p.log.With("run_id", sum.RunID.String())

	valid := p.accept(refs, sum, log)
	if len(valid) == 0 {
		log.Error("no valid source documents", "inputs", len(refs))
		sum.fail(ErrNoInput.Error())
		p.record(ctx, sum, log)

		return sum, ErrNoInput
	}

	log.Info("run started", "documents", len(valid))

	records := p.gather(ctx, valid, sum, log)
	sum.UnmappedKeys = records.Unmapped()

	for _, k := range sum.UnmappedKeys {
		sum.Diagnostics.AddInfo("unmapped_key", "extractor key matches no known key", "", k)
	}

	p.dump(records)

	if records.Len() == 0 && len(sum.ExtractionErrors) > 0 {
		log.Error("data extraction failed for every document", "errors", len(sum.ExtractionErrors))
		sum.fail("data extraction failed")
		p.record(ctx, sum, log)

		return sum, nil
	}

	forms := p.opts.Forms
	if len(forms) == 0 {
		forms = schedule.DetermineForms(p.sched.Rules, records)
	}

	log.Info("target forms determined", "forms", forms)

	runner, err := p.runnerFor(sum.RunID)
	if err != nil {
		log.Error("cannot build runner", "error", err)
		sum.fail(err.Error())
		p.record(ctx, sum, log)

		return sum, nil
	}

	sum.absorb(runner.Run(ctx, records, forms))
	sum.FinishedAt = time.Now().UTC()

	log.Info("run finished", "status", sum.Status,
		"processed", sum.Outcome.Count(schedule.StatusProcessed),
		"skipped", sum.Outcome.Count(schedule.StatusSkipped),
		"failed", sum.Outcome.Count(schedule.StatusFailed))

	p.record(ctx, sum, log)

	return sum, nil
}

func (p *Pipeline) runnerFor(runID uuid.UUID) (*schedule.Runner, error) {
	if p.opts.SinkFor == nil {
		return p.runner, nil
	}

	sc := *p.sched
	sc.Sink = p.opts.SinkFor(runID)

	return schedule.NewRunner(&sc)
}

// accept drops duplicate and unreadable documents, recording each as an
// input error, and returns the rest in input order.
func (p *Pipeline) accept(refs []taxdoc.DocumentRef, sum *Summary, log *slog.Logger) []taxdoc.DocumentRef {
	seen := make(map[taxdoc.DocumentRef]struct{}, len(refs))
	valid := make([]taxdoc.DocumentRef, 0, len(refs))

	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			sum.InputErrors[string(ref)] = "duplicate document"
			log.Warn("duplicate source document", "ref", ref)

			continue
		}

		seen[ref] = struct{}{}

		if p.opts.Source != nil {
			if err := p.opts.Source.Check(ref); err != nil {
				sum.InputErrors[string(ref)] = err.Error()
				log.Error("source document rejected", "ref", ref, "error", err)

				continue
			}
		}

		valid = append(valid, ref)
		sum.Documents = append(sum.Documents, string(ref))
	}

	return valid
}

// gather extracts every document and folds the results into grouped records.
// Documents that yield no data are left out of the grouping.
func (p *Pipeline) gather(ctx context.Context, refs []taxdoc.DocumentRef, sum *Summary, log *slog.Logger) *taxdoc.Records {
	extracted := p.extractAll(ctx, refs, log)
	records := taxdoc.NewRecords()

	for i, ref := range refs {
		ex := extracted[i]
		sum.DocTypes[string(ref)] = string(ex.docType)

		if ex.err != nil {
			sum.ExtractionErrors[string(ref)] = ex.err.Error()
			log.Error("extraction failed", "ref", ref, "error", ex.err)

			continue
		}

		rec, pageErrs := taxdoc.FoldPages(ref, ex.docType, ex.pages, p.canon)
		for _, pe := range pageErrs {
			sum.ExtractionErrors[pageErrorKey(pe)] = pe.Message
			log.Warn("page extraction failed", "ref", ref, "page", pe.Page, "error", pe.Message)
		}

		if len(rec.Data) == 0 && len(rec.Unmapped) == 0 {
			log.Warn("no data extracted", "ref", ref, "doc_type", ex.docType)

			continue
		}

		records.Add(rec)
	}

	return records
}

func pageErrorKey(pe taxdoc.PageError) string {
	return fmt.Sprintf("%s_page_%d", pe.Ref, pe.Page)
}

func (p *Pipeline) dump(records *taxdoc.Records) {
	if p.opts.DebugWriter == nil {
		return
	}

	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	for _, t := range records.Types() {
		fmt.Fprintf(p.opts.DebugWriter, "== %s ==\n", t)
		cfg.Fdump(p.opts.DebugWriter, records.OfType(t))
	}
}

func (p *Pipeline) record(ctx context.Context, sum *Summary, log *slog.Logger) {
	if sum.FinishedAt.IsZero() {
		sum.FinishedAt = time.Now().UTC()
	}

	if p.opts.Recorder == nil {
		return
	}

	if err := p.opts.Recorder.Record(context.WithoutCancel(ctx), sum); err != nil {
		log.Error("cannot record run", "error", err)
		sum.Diagnostics.AddWarning("ledger_write_failed", err.Error(), "", "")
	}
}

func (s *Summary) fail(msg string) {
	s.Status = StatusFailed
	s.Error = msg
}
