package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/notioncms/internal/config"
	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/entity"
	"github.com/dgallion1/notioncms/internal/notion"
)

// ContentService is the read side the handlers need.
type ContentService interface {
	FAQs(ctx context.Context, locale content.Locale) ([]entity.FAQ, error)
	TeamMembers(ctx context.Context, locale content.Locale) ([]entity.TeamMember, error)
	UpcomingEvents(ctx context.Context, locale content.Locale) ([]entity.Event, error)
	Posts(ctx context.Context, locale content.Locale, limit int) ([]entity.BlogPost, error)
	PostBySlug(ctx context.Context, slug string, locale content.Locale) (*entity.BlogPost, error)
	PageDocument(ctx context.Context, pageID string) (doctree.Document, error)
}

// Server is the HTTP API server for notioncms.
type Server struct {
	router  chi.Router
	content ContentService
	stats   *notion.Stats
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(svc ContentService, stats *notion.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		content: svc,
		stats:   stats,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/stats/notion", s.handleNotionStats)
		r.Post("/preview", s.handlePreview)

		r.Route("/pages/{pageID}", func(r chi.Router) {
			r.Use(validPageID)
			r.Get("/document", s.handlePageDocument)
			r.Get("/html", s.handlePageHTML)
			r.Get("/docx", s.handlePageDOCX)
		})

		r.Route("/{locale}", func(r chi.Router) {
			r.Use(withLocale)
			r.Get("/faqs", s.handleFAQs)
			r.Get("/team", s.handleTeam)
			r.Get("/events", s.handleEvents)
			r.Get("/posts", s.handlePosts)
			r.Get("/posts/{slug}", s.handlePost)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
