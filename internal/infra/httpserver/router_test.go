package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appanalyses "github.com/bryanwahyu/chromaleap/internal/application/analyses"
	"github.com/bryanwahyu/chromaleap/internal/domain/ai"
	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

const scenarioReply = "```json\n" +
	`{"analysis_metadata":{"analysis_engine":"ChromaLeap_v1_MVP","timestamp_utc":"2024-01-01T00:00:00Z"},"hypothesized_pipeline":[{"step_order":1,"effect_category":"Basic Correction","effect_name":"Exposure","software_guess":["Lightroom"],"estimated_parameters":{"exposure":"+0.5"},"confidence":0.8}]}` +
	"\n```"

type stubModel struct {
	reply string
	err   error
	calls int
}

func (m *stubModel) Complete(context.Context, ai.CompletionRequest) (string, error) {
	m.calls++
	return m.reply, m.err
}

type memRepo struct {
	records map[domain.RecordID]*domain.Record
	err     error
}

func newMemRepo() *memRepo { return &memRepo{records: map[domain.RecordID]*domain.Record{}} }

func (r *memRepo) Insert(_ context.Context, rec *domain.Record) (domain.RecordID, error) {
	if r.err != nil {
		return "", r.err
	}
	cp := *rec
	cp.ID = domain.RecordID("rec-" + strings.Repeat("x", len(r.records)+1))
	r.records[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memRepo) Get(_ context.Context, id domain.RecordID) (*domain.Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (r *memRepo) Paginate(context.Context, int, int) ([]*domain.Record, error) {
	out := []*domain.Record{}
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func newTestRouter(model ai.Client, repo domain.Repository) http.Handler {
	svc := &appanalyses.Service{Model: model}
	if repo != nil {
		svc.Repo = repo
	}
	return NewRouter(svc, Options{})
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, out
}

func TestAnalyzeSuccess(t *testing.T) {
	repo := newMemRepo()
	h := newTestRouter(&stubModel{reply: scenarioReply}, repo)

	rec, body := post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	analysis, _ := body["analysis"].(map[string]any)
	pipeline, _ := analysis["hypothesized_pipeline"].([]any)
	if len(pipeline) != 1 {
		t.Errorf("pipeline = %v", analysis["hypothesized_pipeline"])
	}
	if body["analysisId"] == nil || body["analysisId"] == "" {
		t.Errorf("analysisId missing: %v", body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
	if len(repo.records) != 1 {
		t.Errorf("records = %d", len(repo.records))
	}
}

func TestAnalyzeAliasPathAndNoRepo(t *testing.T) {
	h := newTestRouter(&stubModel{reply: scenarioReply}, nil)
	rec, body := post(t, h, "/functions/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := body["analysisId"]; ok {
		t.Errorf("analysisId should be omitted without storage: %v", body)
	}
}

func TestAnalyzeProseReply(t *testing.T) {
	prose := "This looks like a film emulation preset, probably VSCO."
	h := newTestRouter(&stubModel{reply: prose}, newMemRepo())

	rec, body := post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["error"] != "Failed to parse AI response" {
		t.Errorf("error = %v", body["error"])
	}
	if body["rawResponse"] != prose {
		t.Errorf("rawResponse = %v", body["rawResponse"])
	}
}

func TestAnalyzeUpstreamStatusMapping(t *testing.T) {
	cases := []struct {
		upstream int
		want     int
		msg      string
	}{
		{429, http.StatusTooManyRequests, MsgRateLimited},
		{402, http.StatusPaymentRequired, MsgQuotaExceeded},
		{500, http.StatusInternalServerError, "AI gateway error: 500"},
		{503, http.StatusInternalServerError, "AI gateway error: 503"},
	}
	for _, tc := range cases {
		model := &stubModel{err: ai.FromStatus(tc.upstream, errors.New("upstream said no"))}
		h := newTestRouter(model, newMemRepo())
		rec, body := post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
		if rec.Code != tc.want {
			t.Errorf("upstream %d: status = %d, want %d", tc.upstream, rec.Code, tc.want)
		}
		if body["error"] != tc.msg {
			t.Errorf("upstream %d: error = %v, want %q", tc.upstream, body["error"], tc.msg)
		}
		if model.calls != 1 {
			t.Errorf("upstream %d: model called %d times, want 1", tc.upstream, model.calls)
		}
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	model := &stubModel{reply: scenarioReply}
	h := newTestRouter(model, nil)

	cases := []struct {
		body string
		msg  string
	}{
		{`{}`, "imageUrl is required"},
		{``, "imageUrl is required"},
		{`{"imageUrl":"   "}`, "imageUrl is required"},
		{`{"imageUrl":"ftp://x/a.jpg"}`, ""},
		{`{"imageUrl":"http://127.0.0.1/a.jpg"}`, ""},
		{`not json`, ""},
	}
	for _, tc := range cases {
		rec, body := post(t, h, "/v1/analyze-image", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d", tc.body, rec.Code)
		}
		if tc.msg != "" && body["error"] != tc.msg {
			t.Errorf("%q: error = %v", tc.body, body["error"])
		}
	}
	if model.calls != 0 {
		t.Errorf("model called %d times for bad requests", model.calls)
	}
}

func TestAnalyzeNotConfigured(t *testing.T) {
	h := NewRouter(&appanalyses.Service{}, Options{})
	rec, body := post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["error"] != ai.ErrNotConfigured.Error() {
		t.Errorf("error = %v", body["error"])
	}
}

func TestAnalyzeNotConfiguredBeforeValidation(t *testing.T) {
	h := NewRouter(&appanalyses.Service{}, Options{})
	for _, body := range []string{`{}`, ``, `not json`, `{"imageUrl":"ftp://x/a.jpg"}`} {
		rec, resp := post(t, h, "/v1/analyze-image", body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("body %q: status = %d", body, rec.Code)
		}
		if resp["error"] != ai.ErrNotConfigured.Error() {
			t.Errorf("body %q: error = %v", body, resp["error"])
		}
	}
}

func TestAnalyzePersistFailureStillSucceeds(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("db down")
	h := newTestRouter(&stubModel{reply: scenarioReply}, repo)

	rec, body := post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", rec.Code, body)
	}
}

func TestPreflight(t *testing.T) {
	h := newTestRouter(&stubModel{}, nil)

	// bare OPTIONS
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/analyze-image", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("bare preflight: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Error("allow-headers missing")
	}

	// browser preflight
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/analyze-image", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type, apikey")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("browser preflight: %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestGetAndListAnalyses(t *testing.T) {
	repo := newMemRepo()
	h := newTestRouter(&stubModel{reply: scenarioReply}, repo)
	_, body := post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)
	id, _ := body["analysisId"].(string)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	var got domain.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ImageURL != "https://x/test.jpg" || len(got.Result.Report().Pipeline) != 1 {
		t.Errorf("record = %+v", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses?page=1&page_size=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var page domain.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Data) != 1 || page.PageSize != 5 {
		t.Errorf("page = %+v", page)
	}
}

func TestListWithoutStorage(t *testing.T) {
	h := newTestRouter(&stubModel{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestProbes(t *testing.T) {
	h := newTestRouter(&stubModel{}, nil)
	for _, path := range []string{"/health", "/ready", "/healthz", "/metrics", "/metrics/prometheus"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: %d", path, rec.Code)
		}
	}
}

func TestAnalysisOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ai.ErrNotConfigured, "not_configured"},
		{ai.FromStatus(429, errors.New("slow down")), "rate_limited"},
		{ai.FromStatus(402, errors.New("pay")), "quota_exceeded"},
		{ai.FromStatus(503, errors.New("down")), "upstream"},
		{&domain.MalformedResponseError{RawText: "nope"}, "malformed"},
		{errors.New("boom"), "error"},
	}
	for _, c := range cases {
		if got := analysisOutcome(c.err); got != c.want {
			t.Errorf("analysisOutcome(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestPrometheusExposition(t *testing.T) {
	h := newTestRouter(&stubModel{reply: scenarioReply}, nil)
	post(t, h, "/v1/analyze-image", `{"imageUrl":"https://x/test.jpg"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))
	if !strings.Contains(rec.Body.String(), `chromaleap_analysis_total{outcome="ok"}`) {
		t.Errorf("outcome counter missing:\n%s", rec.Body.String())
	}
}
