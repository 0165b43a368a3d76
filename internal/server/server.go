package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"confidante-backend/internal/blog"
	"confidante-backend/internal/chatbot"
	"confidante-backend/internal/config"
	"confidante-backend/internal/mail"
	"confidante-backend/internal/store"
	"confidante-backend/internal/types"
)

// Mailer delivers relayed contact messages. *mail.SMTPTransport implements it.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) (*mail.SendResult, error)
	Configured() bool
}

// Pinger reports database health. *db.DB implements it.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Options are the collaborators a Server is built from. Archive and
// Database may be nil.
type Options struct {
	Config   config.Config
	Logger   *zap.Logger
	Mailer   Mailer
	Archive  store.Archive
	Database Pinger
	Sessions *store.MemoryStore
	Bot      *chatbot.Dispatcher
	Blog     *blog.Catalog
	Delays   chatbot.Delays
}

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	logger   *zap.Logger
	mailer   Mailer
	archive  store.Archive
	database Pinger
	sessions *store.MemoryStore
	bot      *chatbot.Dispatcher
	blog     *blog.Catalog
	delays   chatbot.Delays
}

// NewServer wires the routes. ctx bounds background work such as the rate
// limiter cleanup and should be cancelled on shutdown.
func NewServer(ctx context.Context, opts Options) (*Server, error) {
	if opts.Mailer == nil || opts.Sessions == nil || opts.Bot == nil || opts.Blog == nil {
		return nil, fmt.Errorf("server: mailer, sessions, bot and blog are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.Config.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true, // session cookie
		MaxAge:           300,
	}))

	s := &Server{
		router:   r,
		cfg:      opts.Config,
		logger:   logger,
		mailer:   opts.Mailer,
		archive:  opts.Archive,
		database: opts.Database,
		sessions: opts.Sessions,
		bot:      opts.Bot,
		blog:     opts.Blog,
		delays:   opts.Delays,
	}
	s.routes(ctx)
	return s, nil
}

func (s *Server) routes(ctx context.Context) {
	contactLimit := RateLimit(ctx, RateLimitConfig{
		RequestsPerMin: s.cfg.ContactRatePerMin,
		BurstSize:      s.cfg.ContactRateBurst,
		TrustedProxies: s.cfg.TrustedProxies,
	})

	chatLimit := RateLimit(ctx, RateLimitConfig{
		RequestsPerMin: s.cfg.ChatRatePerMin,
		BurstSize:      s.cfg.ChatRateBurst,
		TrustedProxies: s.cfg.TrustedProxies,
	})

	s.router.Get("/api/health", s.handleHealth)
	s.router.With(contactLimit).Post("/api/contact", s.handleContact)
	// Chat widget
	s.router.Get("/api/chat", s.handleChatTranscript)
	s.router.With(chatLimit).Post("/api/chat", s.handleChat)
	s.router.With(chatLimit).Post("/api/chat/options", s.handleChatOption)
	s.router.Delete("/api/chat", s.handleChatReset)
	// Blog
	s.router.Get("/api/blog", s.handleBlogList)
	s.router.Get("/api/blog/{slug}", s.handleBlogPost)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "ok"}
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Database = "ok"
		if err := s.database.HealthCheck(ctx); err != nil {
			s.logger.Warn("database health check failed", zap.Error(err))
			resp.Database = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}
