// Package http serves the ledger, its monthly views and the advisor as a
// JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"carteira/internal/advisor"
	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/middleware/ratelimit"
	"carteira/internal/middleware/security"
	"carteira/internal/middleware/trace"
	"carteira/internal/report"
	"carteira/internal/services"
)

// Advisor is the model-backed side of the API. *advisor.Advisor
// satisfies it.
type Advisor interface {
	Categorize(ctx context.Context, description string, amount core.Money) core.Category
	Extract(ctx context.Context, text string, audio []byte) ([]core.Record, error)
	Chat(ctx context.Context, message string, history []advisor.Message, contextJSON string) (string, error)
	HealthCheck(ctx context.Context, contextJSON string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	AnalyzeImage(ctx context.Context, dataURL, prompt string) (string, error)
}

type Server struct {
	http.Server

	ledger   *services.Ledger
	advisor  Advisor
	locale   report.Locale
	location *time.Location
	logger   *log.Logger

	tracer      *trace.Middleware
	clientIP    *security.ClientIP
	rateLimiter *ratelimit.Limiter
	advisorRPM  int

	started time.Time
	now     func() time.Time
}

type Option func(*Server)

// WithAdvisor enables the advisor routes. Without it they answer 503.
func WithAdvisor(a Advisor) Option {
	return func(s *Server) { s.advisor = a }
}

func WithLocale(l report.Locale) Option {
	return func(s *Server) { s.locale = l }
}

// WithLocation sets the zone that decides the current month.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentHTTP)
		}
	}
}

// WithAdvisorRateLimit caps advisor calls per user and minute.
func WithAdvisorRateLimit(requestsPerMinute int) Option {
	return func(s *Server) { s.advisorRPM = requestsPerMinute }
}

func NewServer(addr string, ledger *services.Ledger, opts ...Option) *Server {
	s := &Server{
		ledger:     ledger,
		locale:     report.DefaultLocale,
		location:   time.Local,
		logger:     log.Discard().WithComponent(log.ComponentHTTP),
		clientIP:   security.NewClientIP(),
		advisorRPM: 20,
		started:    time.Now(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracer = trace.NewMiddleware(s.logger)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.advisorRPM})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransactions)
	mux.HandleFunc("DELETE /api/transactions", s.handleClearTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/charts/daily.png", s.handleDailyChart)
	mux.HandleFunc("GET /api/charts/categories.png", s.handleCategoryChart)

	limited := s.rateLimiter.Middleware(s.rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
	})
	mux.Handle("POST /api/transactions/smart", limited(http.HandlerFunc(s.handleSmartTransactions)))
	mux.Handle("POST /api/categorize", limited(http.HandlerFunc(s.handleCategorize)))
	mux.Handle("POST /api/advisor/chat", limited(http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /api/advisor/health", limited(http.HandlerFunc(s.handleHealthCheck)))
	mux.Handle("POST /api/images/generate", limited(http.HandlerFunc(s.handleGenerateImage)))
	mux.Handle("POST /api/images/analyze", limited(http.HandlerFunc(s.handleAnalyzeImage)))

	s.Handler = s.tracer.Middleware(security.Headers(mux))
	s.ReadHeaderTimeout = 10 * time.Second
	s.Server.Addr = addr
	return s
}

// rateLimitKey charges the named user, or the client address when the
// header is missing.
func (s *Server) rateLimitKey(r *http.Request) string {
	if user, err := ParseUser(r); err == nil {
		return "user:" + user
	}
	return "ip:" + s.clientIP.Extract(r)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(s.started, s.now(), s.advisor != nil, s.tracer.GetMetrics().TotalRequests))
}
