package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/calc"
	"formflow/internal/form"
	"formflow/internal/ledger"
	"formflow/internal/mapping"
	"formflow/internal/pipeline"
	"formflow/internal/rules"
	"formflow/internal/schedule"
)

const w2Doc = `{
  "doc_type": "W-2",
  "pages": {"1": {"data": {
    "EmployeeName": "Jane Doe",
    "WagesTipsOtherComp": "50,000.00",
    "FederalIncomeTaxWithheld": "5,000"
  }}}
}`

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	engine *gin.Engine
	root   string
}

func newServer(t *testing.T, withLedger bool) *testServer {
	t.Helper()

	return newServerAt(t, t.TempDir(), withLedger)
}

func newServerAt(t *testing.T, root string, withLedger bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mf, err := mapping.Default()
	require.NoError(t, err)

	m, err := mapping.NewMapper(mf, nil)
	require.NoError(t, err)

	sc := &schedule.Context{
		Rules:  rules.Default(),
		Mapper: m,
		Engine: calc.NewEngine(nil),
		Loader: schedule.SkeletonLoader(m, form.Types()),
	}

	var l Ledger

	if withLedger {
		store, err := ledger.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		l = store
	}

	h := NewRunHandler(sc, pipeline.Options{Concurrency: 2}, root, l, nil)

	return &testServer{engine: NewEngine(h, nil), root: root}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return rec.Code, env
}

func (s *testServer) createInline(t *testing.T) *pipeline.Summary {
	t.Helper()

	code, env := s.do(t, http.MethodPost, "/api/v1/runs",
		`{"documents": {"w2.pdf": `+w2Doc+`}}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	require.Equal(t, 0, env.Code)

	var sum pipeline.Summary
	require.NoError(t, json.Unmarshal(env.Data, &sum))

	return &sum
}

func TestHealthz(t *testing.T) {
	s := newServer(t, false)

	code, env := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Msg)
}

func TestCreate_InlineDocuments(t *testing.T) {
	s := newServer(t, true)
	sum := s.createInline(t)

	assert.NotEqual(t, uuid.Nil, sum.RunID)
	assert.Equal(t, pipeline.StatusCompleted, sum.Status)
	assert.Equal(t, []form.Type{form.Form1040}, sum.Forms)
	assert.Equal(t, schedule.StatusProcessed, sum.ResultsPerForm[form.Form1040].Status)
}

func TestCreate_RefsUnderRoot(t *testing.T) {
	s := newServer(t, true)

	require.NoError(t, os.WriteFile(filepath.Join(s.root, "w2.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "w2.pdf.json"), []byte(w2Doc), 0o644))

	code, env := s.do(t, http.MethodPost, "/api/v1/runs", RunRequest{Refs: []string{"w2.pdf", "../escape.pdf"}})
	require.Equal(t, http.StatusOK, code, env.Msg)

	var sum pipeline.Summary
	require.NoError(t, json.Unmarshal(env.Data, &sum))

	assert.Equal(t, []string{"w2.pdf"}, sum.Documents)
	assert.Contains(t, sum.InputErrors["../escape.pdf"], "outside the document root")
	assert.Equal(t, schedule.StatusProcessed, sum.ResultsPerForm[form.Form1040].Status)
}

func TestCreate_NoValidInput(t *testing.T) {
	s := newServer(t, true)

	code, env := s.do(t, http.MethodPost, "/api/v1/runs", RunRequest{Refs: []string{"missing.pdf"}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, -1, env.Code)
	assert.Equal(t, pipeline.ErrNoInput.Error(), env.Msg)

	var sum pipeline.Summary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, pipeline.StatusFailed, sum.Status)
	assert.Contains(t, sum.InputErrors, "missing.pdf")
}

func TestCreate_BadRequests(t *testing.T) {
	s := newServer(t, false)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"not json", "{", "invalid request"},
		{"empty", RunRequest{}, "no documents given"},
		{"both", `{"refs": ["a.pdf"], "documents": {"b.pdf": {"doc_type": "W-2"}}}`, "not both"},
		{"null document", `{"documents": {"b.pdf": null}}`, "is empty"},
		{"unknown form", `{"refs": ["a.pdf"], "forms": ["Form 9999"]}`, "unknown form"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/api/v1/runs", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, -1, env.Code)
			assert.Contains(t, env.Msg, tt.want)
		})
	}
}

func TestGet_RecordedRun(t *testing.T) {
	s := newServer(t, true)
	created := s.createInline(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/runs/"+created.RunID.String(), nil)
	require.Equal(t, http.StatusOK, code, env.Msg)

	var got pipeline.Summary
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.RunID, got.RunID)
	assert.Equal(t, created.Status, got.Status)
	assert.Equal(t, created.ResultsPerForm, got.ResultsPerForm)
}

func TestGet_Errors(t *testing.T) {
	s := newServer(t, true)

	code, _ := s.do(t, http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "run not found", env.Msg)

	code, _ = s.do(t, http.MethodGet, "/api/v1/runs/"+uuid.NewString()+"/provenance", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestList(t *testing.T) {
	s := newServer(t, true)
	s.createInline(t)
	s.createInline(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, code)

	var runs []ledger.RunInfo
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 2)

	code, env = s.do(t, http.MethodGet, "/api/v1/runs?limit=1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 1)

	code, _ = s.do(t, http.MethodGet, "/api/v1/runs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProvenance(t *testing.T) {
	s := newServer(t, true)
	created := s.createInline(t)

	code, env := s.do(t, http.MethodGet,
		"/api/v1/runs/"+created.RunID.String()+"/provenance?form=1040", nil)
	require.Equal(t, http.StatusOK, code, env.Msg)

	var rows []ledger.Provenance
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.NotEmpty(t, rows)

	byName := make(map[string]ledger.Provenance, len(rows))
	for _, r := range rows {
		byName[r.FieldName] = r
	}

	require.Contains(t, byName, "Income_1z")
	assert.Equal(t, []string{"w2.pdf"}, byName["Income_1z"].Sources)
	assert.Equal(t, []string{"Calculated"}, byName["Line9_TotalIncome"].Sources)

	code, env = s.do(t, http.MethodGet,
		"/api/v1/runs/"+created.RunID.String()+"/provenance?form=SchedC", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestReadEndpoints_NoLedger(t *testing.T) {
	s := newServer(t, false)

	code, _ := s.do(t, http.MethodGet, "/api/v1/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// Runs still work without a ledger.
	s.createInline(t)
}

func TestCreate_EmptyRootRefusesRefs(t *testing.T) {
	s := newServerAt(t, "", false)

	secret := filepath.Join(t.TempDir(), "secret.pdf")
	require.NoError(t, os.WriteFile(secret, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(secret+".json", []byte(w2Doc), 0o644))

	for _, ref := range []string{secret, "../secret.pdf", "w2.pdf"} {
		code, env := s.do(t, http.MethodPost, "/api/v1/runs", RunRequest{Refs: []string{ref}})
		assert.Equal(t, http.StatusBadRequest, code, ref)
		assert.Contains(t, env.Msg, "no document root configured")
	}

	// Inline documents need no root.
	s.createInline(t)
}
