package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/noahshaw/namematch/internal/budget"
	"github.com/noahshaw/namematch/internal/chat"
	"github.com/noahshaw/namematch/internal/config"
	"github.com/noahshaw/namematch/internal/db"
	gormdb "github.com/noahshaw/namematch/internal/db/gorm"
	"github.com/noahshaw/namematch/internal/profile"
	"github.com/noahshaw/namematch/internal/ranker"
	"github.com/noahshaw/namematch/internal/ratings"
)

// Service configuration constants
const (
	// DefaultHTTPTimeout is the per-request timeout.
	DefaultHTTPTimeout = 30 * time.Second

	// MaxRequestBody bounds request bodies; the largest legitimate payload
	// is a chat turn with history.
	MaxRequestBody = 64 * 1024

	// APIRate and APIBurst configure the general per-client limiter.
	APIRate  = 20.0
	APIBurst = 40
)

// Deps are the wired domain services the HTTP layer exposes.
type Deps struct {
	Store    *gormdb.Store
	Users    db.UserStore
	Couples  db.CoupleStore
	Ratings  *ratings.Service
	Selector *ranker.Selector
	Chat     *chat.Service
	Guard    *budget.Guard
	Profiles *profile.Store
}

// Service is the HTTP API server.
type Service struct {
	config  *config.Config
	deps    Deps
	router  *chi.Mux
	server  *http.Server
	version string
}

// NewService creates the API server over the wired dependencies.
func NewService(cfg *config.Config, deps Deps, version string) *Service {
	s := &Service{
		config:  cfg,
		deps:    deps,
		router:  chi.NewRouter(),
		version: version,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware.
func (s *Service) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(DefaultHTTPTimeout))
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestID)
	s.router.Use(SecurityHeaders(s.config.AllowedOrigins))
	s.router.Use(MaxBodySize(MaxRequestBody))
	s.router.Use(RequireJSONContentType)
}

// setupRoutes configures HTTP routes.
func (s *Service) setupRoutes() {
	// Health checks, unthrottled.
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(RateLimit(NewPerClientRateLimiter(APIRate, APIBurst)))

		r.Post("/auth/identify", s.handleIdentify)

		r.Route("/couples", func(r chi.Router) {
			r.Post("/", s.handleCreateCouple)
			r.Get("/{coupleID}", s.handleGetCouple)
			r.Patch("/{coupleID}", s.handleUpdateCouple)
		})

		r.Get("/names/next", s.handleNextName)

		r.Route("/ratings", func(r chi.Router) {
			r.Post("/", s.handleRate)
			r.Get("/recent", s.handleRecentRatings)
			r.Get("/stats", s.handleRatingStats)
		})

		r.Get("/shortlist", s.handleShortList)

		// The budget guard inside the chat service applies its own,
		// stricter per-IP limits.
		r.Post("/chat", s.handleChat)
		r.Get("/chat/stats", s.handleChatStats)

		r.Get("/profile", s.handleProfile)
	})
}

// Start runs the HTTP server until the context is canceled, then drains it.
func (s *Service) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.config.Port).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// Router exposes the handler for tests.
func (s *Service) Router() http.Handler {
	return s.router
}
