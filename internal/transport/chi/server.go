package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	domanalytics "github.com/kailas-cloud/nutrisearch/internal/domain/analytics"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/result"
	domverify "github.com/kailas-cloud/nutrisearch/internal/domain/verification"
	"github.com/kailas-cloud/nutrisearch/internal/logger"
	healthuc "github.com/kailas-cloud/nutrisearch/internal/usecase/health"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorCode is the machine-readable error kind in an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeNotFound          ErrorCode = "not_found"
	CodeSourceUnavailable ErrorCode = "source_unavailable"
	CodeNoSources         ErrorCode = "no_sources"
	CodeCodeInvalid       ErrorCode = "code_invalid"
	CodeCodeExpired       ErrorCode = "code_expired"
	CodeTooManyAttempts   ErrorCode = "too_many_attempts"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response except the barcode miss.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Searcher is the aggregated food search.
type Searcher interface {
	SearchAll(ctx context.Context, req *request.Request) (result.Result, error)
	SearchByBarcode(ctx context.Context, code string) (result.Result, error)
	ImageURL(ctx context.Context, foodURL string) (string, error)
}

// NutrientProfiler resolves a free-text food description to nutrients.
type NutrientProfiler interface {
	Profile(ctx context.Context, query string) (food.NutrientProfile, error)
}

// Analyzer computes intake reports.
type Analyzer interface {
	Summarize(days []domanalytics.DayIntake, goal domanalytics.Goal, from, to time.Time, includeMissing bool) (domanalytics.Summary, error)
	Daily(day domanalytics.DayIntake, goal domanalytics.Goal) domanalytics.Daily
}

// Verifier issues and checks one-time codes.
type Verifier interface {
	Issue(ctx context.Context, email, purpose string) (domverify.Challenge, error)
	Verify(ctx context.Context, id, code string) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Services groups the use cases served over HTTP. Nutrients and Verification are
// optional; their routes are not mounted when nil.
type Services struct {
	Search       Searcher
	Nutrients    NutrientProfiler
	Analytics    Analyzer
	Verification Verifier
	Health       HealthChecker
}

// Config holds request defaults.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the nutrisearch HTTP API.
type Server struct {
	svc           Services
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, cfg Config, logger *zap.Logger) *Server {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = request.MaxPageSize
	}
	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = min(request.DefaultPageSize, cfg.MaxPageSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{svc: svc, cfg: cfg, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrCodeInvalid, http.StatusBadRequest, CodeCodeInvalid),
		sentinelHandler(domain.ErrCodeExpired, http.StatusGone, CodeCodeExpired),
		sentinelHandler(domain.ErrTooManyAttempts, http.StatusTooManyRequests, CodeTooManyAttempts),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrNoSources, http.StatusServiceUnavailable, CodeNoSources),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusBadGateway, CodeSourceUnavailable),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search", s.Search)
	r.Get("/barcode", s.Barcode)
	r.Get("/image", s.Image)
	if s.svc.Nutrients != nil {
		r.Get("/nutrients", s.Nutrients)
	}
	r.Post("/analytics/summary", s.AnalyticsSummary)
	r.Post("/analytics/daily", s.AnalyticsDaily)
	if s.svc.Verification != nil {
		r.Post("/verification/codes", s.IssueCode)
		r.Post("/verification/codes/{id}/verify", s.VerifyCode)
	}
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status healthuc.Status                  `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: report.Status, Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// decodeBody decodes a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation details are authored for clients and pass through.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		msg := err.Error()
		if i := strings.Index(msg, domain.ErrValidation.Error()); i >= 0 {
			return msg[i:]
		}
		return domain.ErrValidation.Error()
	}

	sentinels := []error{
		domain.ErrCodeInvalid,
		domain.ErrCodeExpired,
		domain.ErrTooManyAttempts,
		domain.ErrNotFound,
		domain.ErrNoSources,
		domain.ErrSourceUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
