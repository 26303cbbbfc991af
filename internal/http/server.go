// Package http serves the FinAssist UI and JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"finassist/internal/aggregate"
	"finassist/internal/assistant"
	"finassist/internal/cache"
	"finassist/internal/core"
	"finassist/internal/log"
	"finassist/internal/metrics"
	appweb "finassist/web"
)

// ExpenseStore is the part of the expense store the handlers use.
type ExpenseStore interface {
	Add(ctx context.Context, fields core.ExpenseFields) (core.Expense, error)
	Update(ctx context.Context, id string, fields core.ExpenseFields) (core.Expense, error)
	Delete(ctx context.Context, id string) error
	Apply(ctx context.Context, cmd core.Command) (core.Expense, error)
	List() []core.Expense
	Get(id string) (core.Expense, error)
	Revision() uint64
}

// Deps are the collaborators a Server needs. Store, Assistant and
// Transcript are required. Currency and monthly income come from the
// Assistant so the page and the chat never disagree.
type Deps struct {
	Store      ExpenseStore
	Assistant  *assistant.Engine
	Transcript *assistant.Transcript
	Metrics    *metrics.Metrics
	Logger     *log.Logger

	// Ready reports backend health for /readyz.
	Ready func(ctx context.Context) error

	SummaryTTL time.Duration
	// RateLimit caps mutating requests per client and minute.
	RateLimit int
	Now       func() time.Time
}

type Server struct {
	http.Server
	deps       Deps
	logger     *log.Logger
	structured *log.StructuredLogger
	templates  *template.Template
	summaries  *cache.LRUCache[aggregate.Summary]
	limiter    *rateLimiter
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Assistant == nil || deps.Transcript == nil {
		return nil, errors.New("store, assistant and transcript are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.FromContext(context.Background())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RateLimit <= 0 {
		deps.RateLimit = defaultRateLimit
	}
	logger := deps.Logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		deps:       deps,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		summaries:  cache.NewLRUCache[aggregate.Summary](4, deps.SummaryTTL),
		limiter:    newRateLimiter(deps.RateLimit, time.Minute),
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		static.ServeHTTP(w, r)
	}))

	s.handle(mux, "GET /{$}", s.handleIndex)
	s.handle(mux, "POST /expenses", s.handleSubmitExpense)
	s.handle(mux, "POST /expenses/{id}/delete", s.handleDeleteExpenseForm)
	s.handle(mux, "POST /chat", s.handleChatForm)

	s.handle(mux, "GET /api/expenses", s.handleListExpenses)
	s.handle(mux, "POST /api/expenses", s.handleCreateExpense)
	s.handle(mux, "GET /api/expenses/{id}", s.handleGetExpense)
	s.handle(mux, "PUT /api/expenses/{id}", s.handleUpdateExpense)
	s.handle(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense)
	s.handle(mux, "GET /api/summary", s.handleSummary)
	s.handle(mux, "GET /api/categories", s.handleCategories)
	s.handle(mux, "GET /api/chat", s.handleChatHistory)
	s.handle(mux, "POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	s.Handler = s.withMiddleware(mux)
	return s, nil
}

// handle registers h under pattern, instrumented with the pattern as route label.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	var handler http.Handler = h
	if s.deps.Metrics != nil {
		handler = s.deps.Metrics.Instrument(pattern, handler)
	}
	mux.Handle(pattern, handler)
}

// Cleaners returns the server's caches for periodic sweeping.
func (s *Server) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.summaries, s.limiter}
}

// withMiddleware adds request ids, security headers, rate limiting and
// request logging.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.NewContext(r.Context(), logger)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w.Header())

		if detectSuspiciousRequest(r) {
			logger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			s.securityEvent("suspicious")
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isMutating(r.Method) && !s.limiter.allow(clientIP) {
			s.securityEvent("rate_limited")
			rw.Header().Set("Retry-After", "60")
			http.Error(rw, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		} else {
			next.ServeHTTP(rw, r)
		}

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func (s *Server) securityEvent(kind string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SecurityEvent(kind)
	}
}

// summary returns the aggregates of the current collection, cached per
// store revision.
func (s *Server) summary(ctx context.Context) (aggregate.Summary, []core.Expense) {
	// Revision first: a concurrent mutation then only costs a recomputation.
	key := strconv.FormatUint(s.deps.Store.Revision(), 10)
	list := s.deps.Store.List()
	sum, hit := s.summaries.GetOrSet(key, func() aggregate.Summary {
		return aggregate.Summarize(list)
	})
	if hit {
		s.logger.DebugContext(ctx, "Summary cache hit", log.FieldRevision, key)
	}
	return sum, list
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
