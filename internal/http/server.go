// Package http serves the mood dashboard, its htmx partials and a small
// JSON API.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
	"moodqueue/internal/middleware/ratelimit"
	"moodqueue/internal/middleware/security"
	appweb "moodqueue/web"
)

const (
	defaultStoreTimeout = 7 * time.Second
	staticMaxAge        = 3600
)

// MoodSubmitter records one mood.
type MoodSubmitter interface {
	Submit(ctx context.Context, mood core.Mood, note string) bool
}

// MoodSummarizer answers the dashboard's two questions.
type MoodSummarizer interface {
	CountByMood(ctx context.Context, start, end string) core.MoodCounts
	LatestNoteByMood(ctx context.Context) core.MoodNotes
	Today() string
}

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	StoreTimeout       time.Duration
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	// Ready reports whether the backing store can serve requests.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server

	templates    *template.Template
	recorder     MoodSubmitter
	aggregator   MoodSummarizer
	ready        func(ctx context.Context) error
	storeTimeout time.Duration
	limiter      *ratelimit.Limiter
	clientIP     *security.ClientIP
	logger       *applog.Logger
}

// NewServer wires routes and middleware. Templates are parsed up front so a
// broken template fails startup instead of a request.
func NewServer(addr string, recorder MoodSubmitter, aggregator MoodSummarizer, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = applog.Nop()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}

	tmpl, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	clientIP, err := security.NewClientIP()
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates:    tmpl,
		recorder:     recorder,
		aggregator:   aggregator,
		ready:        opts.Ready,
		storeTimeout: opts.StoreTimeout,
		clientIP:     clientIP,
		logger:       opts.Logger.WithComponent(applog.ComponentHTTP),
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	s.Addr = addr
	s.Handler = s.routes(opts.CORSAllowedOrigins)
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 15 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.RegisterOnShutdown(s.stopBackground)
	return s, nil
}

func (s *Server) routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	staticFS, err := fs.Sub(appweb.StaticFS, "static")
	if err == nil {
		r.With(security.StaticCache(staticMaxAge)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Get("/", s.handleIndex)
	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.clientIP.Extract, s.handleRateLimited))
		}
		r.Post("/moods", s.handleCreateMood)
	})
	r.Route("/ui", func(r chi.Router) {
		r.Get("/distribution", s.handleDistribution)
		r.Get("/notes", s.handleNotes)
	})
	r.Route("/api", func(r chi.Router) {
		if len(corsOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: corsOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
		}
		r.Get("/counts", s.handleAPICounts)
		r.Get("/notes", s.handleAPINotes)
	})
	return r
}

// stopBackground ends the rate limiter's cleanup loop.
func (s *Server) stopBackground() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// storeContext bounds one store round trip.
func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.storeTimeout)
}
