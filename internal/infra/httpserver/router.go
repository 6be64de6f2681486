package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalyses "github.com/bryanwahyu/chromaleap/internal/application/analyses"
	domai "github.com/bryanwahyu/chromaleap/internal/domain/ai"
	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
	"github.com/bryanwahyu/chromaleap/internal/middleware"
)

// Messages returned to clients for upstream conditions they can act on.
const (
	MsgRateLimited   = "Rate limit exceeded. Please try again later."
	MsgQuotaExceeded = "Payment required. Please add credits to your workspace."
)

// maxBodyBytes caps the analyze request body; it only carries a URL.
const maxBodyBytes = 64 << 10

var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

type Options struct {
	// HealthCheckers back /healthz; nil means nothing to check.
	HealthCheckers map[string]middleware.HealthChecker
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
	// AllowPrivateImageHosts lets image URLs point at loopback/private hosts,
	// e.g. a local MinIO during development.
	AllowPrivateImageHosts bool
}

type Router struct {
	svc  *appanalyses.Service
	opts Options
}

func NewRouter(svc *appanalyses.Service, opts Options) http.Handler {
	r := &Router{svc: svc, opts: opts}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(permissiveCORS)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: allowedHeaders,
		MaxAge:         300,
	}))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Method(http.MethodGet, "/metrics/prometheus", middleware.PrometheusHandler())

	for _, path := range []string{"/v1/analyze-image", "/functions/v1/analyze-image"} {
		mux.Options(path, preflight)
		mux.Post(path, r.wrap(r.handleAnalyze))
	}

	mux.Route("/v1/analyses", func(rt chi.Router) {
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/{id}", r.wrap(r.handleGet))
	})

	return mux
}

// permissiveCORS stamps the CORS headers on every response, also when the
// request carries no Origin (go-chi/cors only answers browsers).
func permissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		next.ServeHTTP(w, r)
	})
}

// preflight answers a bare OPTIONS with an empty 200.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// requestError is a client mistake whose message is shown as is.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return domain.ErrInvalidInput }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error       string  `json:"error"`
	RawResponse *string `json:"rawResponse,omitempty"`
	Details     string  `json:"details,omitempty"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, body := errorResponse(err)
		if status >= 500 {
			log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
		}
		writeJSON(w, status, body)
	}
}

func errorResponse(err error) (int, errorBody) {
	var reqErr *requestError
	var malformed *domain.MalformedResponseError
	var upstream *domai.UpstreamError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, errorBody{Error: reqErr.msg}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}
	case errors.Is(err, domai.ErrRateLimited):
		return http.StatusTooManyRequests, errorBody{Error: MsgRateLimited}
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusPaymentRequired, errorBody{Error: MsgQuotaExceeded}
	case errors.As(err, &malformed):
		raw := malformed.RawText
		return http.StatusInternalServerError, errorBody{Error: malformed.Error(), RawResponse: &raw}
	case errors.Is(err, appanalyses.ErrStorageDisabled):
		return http.StatusServiceUnavailable, errorBody{Error: err.Error()}
	case errors.As(err, &upstream):
		body := errorBody{Error: upstream.Error()}
		if upstream.Err != nil {
			body.Details = upstream.Err.Error()
		}
		return http.StatusInternalServerError, body
	default:
		body := errorBody{Error: err.Error()}
		if cause := errors.Unwrap(err); cause != nil {
			body.Details = cause.Error()
		}
		return http.StatusInternalServerError, body
	}
}

// analysisOutcome labels an analyze result for the outcome counter.
func analysisOutcome(err error) string {
	var malformed *domain.MalformedResponseError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domai.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, domai.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domai.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.Is(err, domai.ErrUpstreamUnavailable):
		return "upstream"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("write response")
	}
}

type analyzeResponse struct {
	Success bool `json:"success"`
	appanalyses.Outcome
}

// POST /v1/analyze-image
// Body: {"imageUrl": "<public url>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	// a missing credential fails every request, before the body is read
	if !r.svc.Configured() {
		return domai.ErrNotConfigured
	}

	var body struct {
		ImageURL string `json:"imageUrl"`
	}
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid JSON body: %v", err)
	}

	imageURL := middleware.SanitizeString(body.ImageURL)
	if err := middleware.ValidateImageURL(imageURL, r.opts.AllowPrivateImageHosts); err != nil {
		return badRequest("%s", err.Error())
	}

	middleware.IncrementAnalyses()
	start := time.Now()
	out, err := r.svc.Analyze(req.Context(), imageURL)
	middleware.ObserveAnalysis(analysisOutcome(err), time.Since(start))
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, Outcome: out})
	return nil
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.List(req.Context(), page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	rec, err := r.svc.Get(req.Context(), domain.RecordID(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}
