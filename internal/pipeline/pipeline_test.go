package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/calc"
	"formflow/internal/form"
	"formflow/internal/mapping"
	"formflow/internal/rules"
	"formflow/internal/schedule"
	"formflow/internal/taxdoc"
	"formflow/internal/validate"
)

type fakeDoc struct {
	docType     taxdoc.DocType
	classifyErr error
	pages       map[int]taxdoc.Page
	extractErr  error
	delay       time.Duration
}

type fakeDocs struct {
	docs map[taxdoc.DocumentRef]fakeDoc

	active    atomic.Int32
	maxActive atomic.Int32
}

func newFake(docs map[taxdoc.DocumentRef]fakeDoc) *fakeDocs {
	return &fakeDocs{docs: docs}
}

func (f *fakeDocs) Check(ref taxdoc.DocumentRef) error {
	if _, ok := f.docs[ref]; !ok {
		return fmt.Errorf("%s: %w", ref, fs.ErrNotExist)
	}

	return nil
}

func (f *fakeDocs) Classify(_ context.Context, ref taxdoc.DocumentRef) (taxdoc.DocType, error) {
	d := f.docs[ref]

	return d.docType, d.classifyErr
}

func (f *fakeDocs) Extract(_ context.Context, ref taxdoc.DocumentRef, _ taxdoc.DocType) (map[int]taxdoc.Page, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)

	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	d := f.docs[ref]
	time.Sleep(d.delay)

	return d.pages, d.extractErr
}

func page(data map[string]any) taxdoc.Page {
	return taxdoc.Page{Data: data}
}

func w2Doc() fakeDoc {
	return fakeDoc{
		docType: taxdoc.DocW2,
		pages: map[int]taxdoc.Page{
			1: page(map[string]any{
				"employee_name":         "Jane Doe",
				"wages tips other comp": "1.00",
				"FavoriteColor":         "blue",
			}),
			2: page(map[string]any{
				"WagesTipsOtherComp":       "$50,000.00",
				"FederalIncomeTaxWithheld": "5,000",
			}),
		},
	}
}

func newScheduleContext(t *testing.T) *schedule.Context {
	t.Helper()

	mf, err := mapping.Default()
	require.NoError(t, err)

	m, err := mapping.NewMapper(mf, nil)
	require.NoError(t, err)

	return &schedule.Context{
		Rules:  rules.Default(),
		Mapper: m,
		Engine: calc.NewEngine(nil),
		Loader: schedule.SkeletonLoader(m, form.Types()),

		Validator: validate.Default(),
	}
}

func newPipeline(t *testing.T, sc *schedule.Context, f *fakeDocs, opts Options) *Pipeline {
	t.Helper()

	if opts.Source == nil {
		opts.Source = f
	}

	p, err := New(sc, f, f, opts)
	require.NoError(t, err)

	return p
}

func refs(names ...string) []taxdoc.DocumentRef {
	out := make([]taxdoc.DocumentRef, len(names))
	for i, n := range names {
		out[i] = taxdoc.DocumentRef(n)
	}

	return out
}

func assertNum(t *testing.T, want string, s *form.Structure, name string) {
	t.Helper()

	got, ok := s.Number(name)
	require.True(t, ok, "field %s not set", name)
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", name, want, got)
}

func TestRun_W2(t *testing.T) {
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	sum, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, sum.RunID)
	assert.Equal(t, StatusCompleted, sum.Status)
	assert.Equal(t, []string{"w2.pdf"}, sum.Documents)
	assert.Equal(t, "W-2", sum.DocTypes["w2.pdf"])
	assert.Equal(t, []form.Type{form.Form1040}, sum.Forms)
	assert.Equal(t, []string{"FavoriteColor"}, sum.UnmappedKeys)
	assert.True(t, sum.Diagnostics.HasCode("unmapped_key"))
	assert.False(t, sum.FinishedAt.Before(sum.StartedAt))

	res := sum.ResultsPerForm[form.Form1040]
	assert.Equal(t, schedule.StatusProcessed, res.Status)
	assert.Empty(t, res.Error)
	assert.Positive(t, res.Populated)
	require.NotNil(t, res.Validation)
	assert.False(t, res.Validation.HasErrors())
	assert.False(t, res.NeedsReview)
	assert.Empty(t, sum.NeedsReview)

	s, ok := sum.Structure(form.Form1040)
	require.True(t, ok)

	// The second page repeats the wages key and wins.
	assertNum(t, "50000", s, "Income_1z")
	assert.Equal(t, "Jane", s.Text("FirstNameInitial"))
}

func TestRun_PageErrors(t *testing.T) {
	doc := w2Doc()
	doc.pages[3] = taxdoc.Page{Err: "page unreadable"}

	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": doc})
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	sum, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StatusCompletedWithExtractionErrors, sum.Status)
	assert.Equal(t, map[string]string{"w2.pdf_page_3": "page unreadable"}, sum.ExtractionErrors)
	assert.Equal(t, schedule.StatusProcessed, sum.ResultsPerForm[form.Form1040].Status)
}

func TestRun_ClassificationFallsBackToOther(t *testing.T) {
	failing := w2Doc()
	failing.classifyErr = errors.New("model timeout")

	lowercase := w2Doc()
	lowercase.docType = "w-2"

	bogus := w2Doc()
	bogus.docType = "Napkin Sketch"

	f := newFake(map[taxdoc.DocumentRef]fakeDoc{
		"a.pdf": failing,
		"b.pdf": lowercase,
		"c.pdf": bogus,
	})
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	sum, err := p.Run(context.Background(), refs("a.pdf", "b.pdf", "c.pdf"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a.pdf": "Other", "b.pdf": "W-2", "c.pdf": "Other"}, sum.DocTypes)

	// Only b.pdf is a W-2, so only its wages reach the 1040.
	s, ok := sum.Structure(form.Form1040)
	require.True(t, ok)
	assertNum(t, "50000", s, "Income_1z")
}

func TestRun_NoValidInput(t *testing.T) {
	f := newFake(nil)
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	sum, err := p.Run(context.Background(), refs("missing.pdf"))
	require.ErrorIs(t, err, ErrNoInput)
	require.NotNil(t, sum)

	assert.Equal(t, StatusFailed, sum.Status)
	assert.Contains(t, sum.InputErrors["missing.pdf"], "not exist")
	assert.Empty(t, sum.ResultsPerForm)

	_, err = p.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoInput)
}

func TestRun_InputErrorsDoNotAbort(t *testing.T) {
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	sum, err := p.Run(context.Background(), refs("w2.pdf", "gone.pdf", "w2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, []string{"w2.pdf"}, sum.Documents)
	assert.Len(t, sum.InputErrors, 1)
	assert.Contains(t, sum.InputErrors, "gone.pdf")
	assert.Equal(t, StatusCompleted, sum.Status)
}

func TestRun_AllExtractionsFail(t *testing.T) {
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{
		"a.pdf": {docType: taxdoc.DocW2, extractErr: errors.New("corrupt pdf")},
		"b.pdf": {docType: taxdoc.DocW2, pages: map[int]taxdoc.Page{1: {Err: "blank"}}},
	})
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	sum, err := p.Run(context.Background(), refs("a.pdf", "b.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, sum.Status)
	assert.Equal(t, "data extraction failed", sum.Error)
	assert.Contains(t, sum.ExtractionErrors["a.pdf"], "corrupt pdf")
	assert.Equal(t, "blank", sum.ExtractionErrors["b.pdf_page_1"])
	assert.Nil(t, sum.Outcome)
}

func TestRun_CancelledContextStopsExtraction(t *testing.T) {
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	p := newPipeline(t, newScheduleContext(t), f, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := p.Run(ctx, refs("w2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, sum.Status)
	assert.Contains(t, sum.ExtractionErrors["w2.pdf"], context.Canceled.Error())
}

type skipLoader struct {
	form.Loader
	skip form.Type
}

func (l skipLoader) Load(t form.Type) (*form.Structure, error) {
	if t == l.skip {
		return nil, fmt.Errorf("%w: %s", form.ErrTemplateNotFound, t)
	}

	return l.Loader.Load(t)
}

func TestRun_SkippedForm(t *testing.T) {
	sc := newScheduleContext(t)
	sc.Loader = skipLoader{Loader: sc.Loader, skip: form.Form1040}

	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	p := newPipeline(t, sc, f, Options{})

	sum, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StatusCompletedWithSkips, sum.Status)

	res := sum.ResultsPerForm[form.Form1040]
	assert.Equal(t, schedule.StatusSkipped, res.Status)
	assert.Contains(t, res.Error, form.ErrTemplateNotFound.Error())
}

func TestRun_ValidationFlagsReview(t *testing.T) {
	v := validate.New()
	v.Register(form.Form1040, func(r *validate.Report, s *form.Structure) {
		r.Identity(s, "Line9_TotalIncome", "a figure nobody reported", decimal.NewFromInt(1))
	})

	sc := newScheduleContext(t)
	sc.Validator = v

	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})

	sum, err := newPipeline(t, sc, f, Options{}).Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	// Findings flag the form without failing it.
	assert.Equal(t, StatusCompleted, sum.Status)
	assert.Equal(t, []form.Type{form.Form1040}, sum.NeedsReview)

	res := sum.ResultsPerForm[form.Form1040]
	assert.Equal(t, schedule.StatusProcessed, res.Status)
	assert.True(t, res.NeedsReview)
	require.NotNil(t, res.Validation)
	assert.True(t, res.Validation.HasCode(validate.CodeLineMismatch))
	assert.True(t, sum.Diagnostics.HasCode(validate.CodeLineMismatch))
}

type failingReviewer struct{}

func (failingReviewer) Review(context.Context, form.Type, *form.Structure) (map[string]any, error) {
	return nil, errors.New("reviewer offline")
}

func TestRun_ReviewAndExtractionErrors(t *testing.T) {
	sc := newScheduleContext(t)
	sc.Reviewer = failingReviewer{}

	doc := w2Doc()
	doc.pages[9] = taxdoc.Page{Err: "torn"}

	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": doc})
	p := newPipeline(t, sc, f, Options{})

	sum, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StatusCompletedWithExtractionReviewError, sum.Status)
	assert.Equal(t, "reviewer offline", sum.ResultsPerForm[form.Form1040].ReviewError)
}

func TestRun_FormsOverride(t *testing.T) {
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{
		"pl.pdf": {docType: taxdoc.DocProfitLoss, pages: map[int]taxdoc.Page{
			1: page(map[string]any{"GrossReceiptsOrSales": "10,000"}),
		}},
	})
	p := newPipeline(t, newScheduleContext(t), f, Options{Forms: []form.Type{form.SchedC}})

	sum, err := p.Run(context.Background(), refs("pl.pdf"))
	require.NoError(t, err)

	assert.Equal(t, []form.Type{form.SchedC}, sum.Forms)
	assert.Len(t, sum.ResultsPerForm, 1)
}

type captureRecorder struct {
	mu   sync.Mutex
	runs []*Summary
	err  error
}

func (r *captureRecorder) Record(_ context.Context, s *Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, s)

	return r.err
}

func TestRun_Recorder(t *testing.T) {
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	rec := &captureRecorder{}
	p := newPipeline(t, newScheduleContext(t), f, Options{Recorder: rec})

	sum, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)
	require.Len(t, rec.runs, 1)
	assert.Same(t, sum, rec.runs[0])

	_, err = p.Run(context.Background(), refs("nope.pdf"))
	require.ErrorIs(t, err, ErrNoInput)
	assert.Len(t, rec.runs, 2)

	rec.err = errors.New("database locked")
	sum, err = p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)
	assert.True(t, sum.Diagnostics.HasCode("ledger_write_failed"))
}

func TestRun_DebugDump(t *testing.T) {
	var buf bytes.Buffer

	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	p := newPipeline(t, newScheduleContext(t), f, Options{DebugWriter: &buf})

	_, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "== W-2 ==")
	assert.Contains(t, out, "WagesTipsOtherComp")
}

func TestExtractAll_KeepsInputOrderAndLimit(t *testing.T) {
	docs := make(map[taxdoc.DocumentRef]fakeDoc)
	names := make([]string, 6)

	for i := range names {
		names[i] = fmt.Sprintf("doc%d.pdf", i)
		docs[taxdoc.DocumentRef(names[i])] = fakeDoc{
			docType: taxdoc.DocTypes()[i],
			delay:   time.Duration(len(names)-i) * 5 * time.Millisecond,
		}
	}

	f := newFake(docs)
	p := newPipeline(t, newScheduleContext(t), f, Options{Concurrency: 2})

	got := p.extractAll(context.Background(), refs(names...), p.log)
	require.Len(t, got, len(names))

	for i := range names {
		assert.Equal(t, taxdoc.DocTypes()[i], got[i].docType)
	}

	assert.LessOrEqual(t, f.maxActive.Load(), int32(2))
}

func TestDeriveStatus(t *testing.T) {
	outcome := func(statuses ...schedule.Status) *schedule.Outcome {
		out := &schedule.Outcome{Results: make(map[form.Type]*schedule.FormResult)}
		for i, s := range statuses {
			ft := form.Types()[i]
			out.Results[ft] = &schedule.FormResult{Form: ft, Status: s}
		}

		return out
	}

	reviewed := outcome(schedule.StatusProcessed)
	reviewed.Results[form.SchedC].ReviewErr = errors.New("x")

	tests := []struct {
		name       string
		extraction bool
		out        *schedule.Outcome
		want       RunStatus
	}{
		{"clean", false, outcome(schedule.StatusProcessed), StatusCompleted},
		{"extraction", true, outcome(schedule.StatusProcessed), StatusCompletedWithExtractionErrors},
		{"review", false, reviewed, StatusCompletedWithReviewErrors},
		{"both", true, reviewed, StatusCompletedWithExtractionReviewError},
		{"skip beats review", true, outcome(schedule.StatusSkipped, schedule.StatusProcessed), StatusCompletedWithSkips},
		{"failure beats skip", false, outcome(schedule.StatusSkipped, schedule.StatusFailed), StatusFailed},
		{"no forms", false, outcome(), StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveStatus(tt.extraction, tt.out))
		})
	}
}

func TestNew_Validates(t *testing.T) {
	f := newFake(nil)

	_, err := New(newScheduleContext(t), nil, f, Options{})
	require.Error(t, err)

	_, err = New(&schedule.Context{}, f, f, Options{})
	require.Error(t, err)

	p, err := New(newScheduleContext(t), f, f, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConcurrency, p.opts.Concurrency)
}

func TestRun_SinkPerRun(t *testing.T) {
	dir := t.TempDir()
	f := newFake(map[taxdoc.DocumentRef]fakeDoc{"w2.pdf": w2Doc()})
	p := newPipeline(t, newScheduleContext(t), f, Options{
		SinkFor: func(id uuid.UUID) schedule.Sink {
			return schedule.DirSink{Dir: filepath.Join(dir, id.String())}
		},
	})

	first, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	second, err := p.Run(context.Background(), refs("w2.pdf"))
	require.NoError(t, err)

	a := first.ResultsPerForm[form.Form1040].OutputPath
	b := second.ResultsPerForm[form.Form1040].OutputPath

	assert.FileExists(t, a)
	assert.FileExists(t, b)
	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Join(dir, first.RunID.String()), filepath.Dir(a))
}
