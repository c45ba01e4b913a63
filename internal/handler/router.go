package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/zhouzirui/finbot/backend/internal/config"
	"github.com/zhouzirui/finbot/backend/internal/handler/chat"
	"github.com/zhouzirui/finbot/backend/internal/handler/ticker"
	chatService "github.com/zhouzirui/finbot/backend/internal/service/chat"
	"github.com/zhouzirui/finbot/backend/pkg/utils"
)

// Options carries the cross-cutting HTTP settings.
type Options struct {
	Auth      config.AuthConfig
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig
}

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(newCORS(opts.CORS).Handler)
	r.Use(envelopeErrors)
	if opts.RateLimit.Concurrency > 0 {
		r.Use(middleware.ThrottleBacklog(opts.RateLimit.Concurrency, opts.RateLimit.Backlog, opts.RateLimit.Timeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "Invalid request method")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondData(w, map[string]string{"status": "ok"})
	})

	// /chat and /ticker require credentials, the session endpoints do not.
	var protected chi.Router = r.With()
	if opts.Auth.Enabled() {
		protected = r.With(middleware.BasicAuth("finbot", opts.Auth.Users))
	} else {
		log.Println("warning: AUTH_USERS not configured, /chat and /ticker are unauthenticated")
	}

	chat.New(chatSvc).RegisterRoutes(r, protected)
	ticker.New(chatSvc).RegisterRoutes(r, protected)

	return r
}

// defaultOrigins is used when CORS_ALLOWED_ORIGINS is unset. Credentials are
// allowed, so a wildcard is never used.
var defaultOrigins = []string{"http://localhost:5173", "https://finbot-fe.vercel.app"}

func newCORS(cfg config.CORSConfig) *cors.Cors {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
}
