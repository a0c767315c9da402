package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/possuite/go-pos-server/internal/config"
	"github.com/possuite/go-pos-server/session"
	"github.com/possuite/go-pos-server/stores"
	"github.com/possuite/go-pos-server/users"
)

// Repos bundles the persistence dependencies the server needs.
type Repos struct {
	Users  users.Repo
	Stores stores.Repo
}

// Server wires the HTTP surface to the session manager and the repositories.
// The session manager is injected once at startup; nothing here reaches for
// global state.
type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions *session.Manager
	repos    Repos
	notify   *NotifyHub
	log      zerolog.Logger
}

func New(cfg config.Config, sessions *session.Manager, repos Repos) *Server {
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: sessions,
		repos:    repos,
		log:      log.Logger,
	}
	s.notify = NewNotifyHub(sessions, s.log)

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /health", s.HealthHandler())

	// AUTH
	s.RegisterRouteFunc("POST /auth/login", s.LoginHandler())
	s.RegisterRouteFunc("POST /auth/refresh", s.RefreshHandler())
	s.RegisterRouteFunc("POST /auth/logout", ChainMiddleware(s.LogoutHandler(), s.RequireAuth()))

	// STORES
	s.RegisterRouteFunc("POST /stores", s.RegisterStoreHandler())
	s.RegisterRouteFunc("GET /stores", ChainMiddleware(s.ListStoresHandler(), s.RequireAuth()))
	s.RegisterRouteFunc("GET /stores/{id}", ChainMiddleware(s.GetStoreHandler(), s.RequireAuth()))
	s.RegisterRouteFunc("PUT /stores/{id}", ChainMiddleware(s.UpdateStoreHandler(), s.RequireAuth()))

	// NOTIFICATIONS
	s.RegisterRouteFunc("GET /ws/notifications", s.notify.Handler())
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.log.Debug().Str("route", route).Msg("registered")
	}
}

// ChainMiddleware applies middleware to a handler in reverse order.
func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}
