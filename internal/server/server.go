package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/http/handlers"
	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/middleware"
	"github.com/hongminglow/aparthus-be/internal/notify"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, static *auth.StaticCredentials) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, static),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler: public health, login and sign-up routes, and everything
// else under /api behind bearer authentication.
func NewHandler(cfg config.Config, store storage.Store, static *auth.StaticCredentials) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	notifier := notify.NewService(store)
	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)

	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now()).Register(root)
	authHandler := handlers.NewAuthHandler(store, static, tokens)
	authHandler.RegisterPublic(root, limiter.Limit)

	api := root.PathPrefix("/api").Subrouter()
	api.Use(middleware.Authenticate(tokens))
	handlers.NewResidentHandler(store, store, notifier).Register(api)
	handlers.NewLedgerHandler(store).Register(api)
	handlers.NewCommunityHandler(store, notifier).Register(api)
	handlers.NewQRHandler(store).Register(api)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(root))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
