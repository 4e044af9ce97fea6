// Package httpapi exposes runs over HTTP with gin.
//
//	POST /api/v1/runs                  start a run, reply with its summary
//	GET  /api/v1/runs                  list recorded runs, newest first
//	GET  /api/v1/runs/:id              recorded summary of one run
//	GET  /api/v1/runs/:id/provenance   populated fields and their sources
//
// Runs are synchronous: the POST returns once every form is processed.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"formflow/internal/form"
	"formflow/internal/ledger"
	"formflow/internal/pipeline"
	"formflow/internal/schedule"
	"formflow/internal/sidecar"
	"formflow/internal/taxdoc"
)

// Ledger is the run history the read endpoints serve from.
type Ledger interface {
	pipeline.Recorder
	Run(ctx context.Context, id uuid.UUID) (*pipeline.Summary, error)
	Runs(ctx context.Context, limit int) ([]ledger.RunInfo, error)
	Provenance(ctx context.Context, id uuid.UUID, t form.Type) ([]ledger.Provenance, error)
}

// RunRequest starts a run either from document refs under the server's
// document root, each with a sidecar next to it, or from documents posted
// inline. Exactly one of Refs and Documents must be given.
type RunRequest struct {
	Refs      []string                     `json:"refs"`
	Documents map[string]*sidecar.Document `json:"documents"`
	// Forms overrides form determination.
	Forms []form.Type `json:"forms"`
}

// RunHandler serves the run endpoints.
type RunHandler struct {
	sched  *schedule.Context
	opts   pipeline.Options
	root   string
	ledger Ledger
	log    *slog.Logger
}

// NewRunHandler returns a handler running pipelines over sched. Refs are
// resolved under root; with an empty root only inline documents are
// accepted. A nil ledger disables recording and the read
// endpoints.
func NewRunHandler(sched *schedule.Context, opts pipeline.Options, root string, l Ledger, log *slog.Logger) *RunHandler {
	if log == nil {
		log = slog.Default()
	}

	opts.Logger = log

	if l != nil {
		opts.Recorder = l
	}

	return &RunHandler{sched: sched, opts: opts, root: root, ledger: l, log: log}
}

// Create runs the posted documents.
func (h *RunHandler) Create(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	src, refs, err := h.source(req)
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	for _, t := range req.Forms {
		if _, ok := h.sched.Rules.Rule(t); !ok {
			Fail(c, http.StatusBadRequest, fmt.Sprintf("unknown form %q", t))
			return
		}
	}

	opts := h.opts
	opts.Source = src
	opts.Forms = req.Forms

	p, err := pipeline.New(h.sched, src, src, opts)
	if err != nil {
		h.log.Error("cannot build pipeline", "error", err)
		Fail(c, http.StatusInternalServerError, err.Error())

		return
	}

	sum, err := p.Run(c.Request.Context(), refs)
	if errors.Is(err, pipeline.ErrNoInput) {
		FailWith(c, http.StatusUnprocessableEntity, err.Error(), sum)
		return
	}

	Success(c, sum)
}

type runSource interface {
	pipeline.Source
	pipeline.Classifier
	pipeline.Extractor
}

func (h *RunHandler) source(req RunRequest) (runSource, []taxdoc.DocumentRef, error) {
	switch {
	case len(req.Refs) > 0 && len(req.Documents) > 0:
		return nil, nil, errors.New("give either refs or documents, not both")
	case len(req.Refs) > 0:
		if h.root == "" {
			return nil, nil, errors.New("refs are disabled: no document root configured")
		}

		refs := make([]taxdoc.DocumentRef, len(req.Refs))
		for i, r := range req.Refs {
			refs[i] = taxdoc.DocumentRef(r)
		}

		return sidecar.Dir{Root: h.root}, refs, nil
	case len(req.Documents) > 0:
		static := make(sidecar.Static, len(req.Documents))
		names := make([]string, 0, len(req.Documents))

		for name, doc := range req.Documents {
			if doc == nil {
				return nil, nil, fmt.Errorf("document %q is empty", name)
			}

			static[taxdoc.DocumentRef(name)] = doc
			names = append(names, name)
		}

		sort.Strings(names)

		refs := make([]taxdoc.DocumentRef, len(names))
		for i, n := range names {
			refs[i] = taxdoc.DocumentRef(n)
		}

		return static, refs, nil
	default:
		return nil, nil, errors.New("no documents given")
	}
}

// List returns recorded runs; ?limit=N caps the count.
func (h *RunHandler) List(c *gin.Context) {
	if !h.hasLedger(c) {
		return
	}

	limit := 50

	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			Fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = n
	}

	runs, err := h.ledger.Runs(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("cannot list runs", "error", err)
		Fail(c, http.StatusInternalServerError, "cannot list runs")

		return
	}

	Success(c, runs)
}

// Get returns the recorded summary of one run.
func (h *RunHandler) Get(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	sum, err := h.ledger.Run(c.Request.Context(), id)
	if err != nil {
		h.readFailed(c, id, err)
		return
	}

	Success(c, sum)
}

// Provenance returns the populated fields of a run; ?form= narrows to one form.
func (h *RunHandler) Provenance(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if _, err := h.ledger.Run(ctx, id); err != nil {
		h.readFailed(c, id, err)
		return
	}

	rows, err := h.ledger.Provenance(ctx, id, form.Type(c.Query("form")))
	if err != nil {
		h.readFailed(c, id, err)
		return
	}

	if rows == nil {
		rows = []ledger.Provenance{}
	}

	Success(c, rows)
}

func (h *RunHandler) runID(c *gin.Context) (uuid.UUID, bool) {
	if !h.hasLedger(c) {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, http.StatusBadRequest, "invalid run id")
		return uuid.Nil, false
	}

	return id, true
}

func (h *RunHandler) hasLedger(c *gin.Context) bool {
	if h.ledger == nil {
		Fail(c, http.StatusServiceUnavailable, "run ledger is disabled")
		return false
	}

	return true
}

func (h *RunHandler) readFailed(c *gin.Context, id uuid.UUID, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		Fail(c, http.StatusNotFound, "run not found")
		return
	}

	h.log.Error("cannot read run", "run_id", id.String(), "error", err)
	Fail(c, http.StatusInternalServerError, "cannot read run")
}
