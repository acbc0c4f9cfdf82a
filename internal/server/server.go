// Package server wires the modules into one chi router and Huma API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LoganMeitz/votefinder/internal/auth"
	"github.com/LoganMeitz/votefinder/internal/games"
	"github.com/LoganMeitz/votefinder/internal/players"
	"github.com/LoganMeitz/votefinder/internal/scheduler"
	"github.com/LoganMeitz/votefinder/internal/votes"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/module"
	"github.com/LoganMeitz/votefinder/pkg/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server holds the router, the API and the modules mounted on them.
type Server struct {
	Router     chi.Router
	API        huma.API
	Authorizer *middleware.Authorizer

	Players   *players.Module
	Auth      *auth.Module
	Games     *games.Module
	Votes     *votes.Module
	Scheduler *scheduler.Module
}

// initializer is implemented by modules that need indexes or seed data.
type initializer interface {
	Initialize(ctx context.Context) error
}

// New builds every module and mounts its routes. It performs no database calls so the
// OpenAPI generator can use it without a server.
func New(mongodb *database.MongoDB, redis *database.Redis, authorizer *middleware.Authorizer) (*Server, error) {
	s := &Server{Authorizer: authorizer}

	s.Players = players.New(mongodb, redis, authorizer)
	s.Auth = auth.New(mongodb, redis, s.Players.Service(), authorizer)
	humaAuth := s.Auth.HumaAuth()
	s.Players.SetAuth(humaAuth)
	s.Games = games.New(mongodb, redis, s.Players.Service(), humaAuth)

	var err error
	s.Votes, err = votes.New(mongodb, redis, s.Games.Service(), s.Players.Service(), humaAuth)
	if err != nil {
		return nil, err
	}
	s.Scheduler, err = scheduler.New(mongodb, redis, s.Games.Service(), humaAuth)
	if err != nil {
		return nil, err
	}

	s.Router = newRouter(mongodb, redis)
	s.API = s.mount(config.GetAPIPrefix())
	return s, nil
}

// Modules lists the modules in start order.
func (s *Server) Modules() []module.APIModule {
	return []module.APIModule{s.Players, s.Auth, s.Games, s.Votes, s.Scheduler}
}

// Initialize creates indexes, seeds the admin policies and rebuilds moderator grants from the rosters.
func (s *Server) Initialize(ctx context.Context) error {
	for _, m := range s.Modules() {
		if in, ok := m.(initializer); ok {
			if err := in.Initialize(ctx); err != nil {
				return fmt.Errorf("initialize %s: %w", m.Name(), err)
			}
		}
	}

	if err := s.Authorizer.SeedPolicies(config.GetAdminPlayerIDs()); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	grants, err := s.Games.Service().ModeratorGrants(ctx)
	if err != nil {
		return fmt.Errorf("load moderator grants: %w", err)
	}
	if err := s.Authorizer.SyncGameModerators(grants); err != nil {
		return fmt.Errorf("sync moderator grants: %w", err)
	}
	slog.Info("Moderator grants synced", "grants", len(grants))
	return nil
}

func (s *Server) StartBackgroundTasks(ctx context.Context) {
	for _, m := range s.Modules() {
		go m.StartBackgroundTasks(ctx)
	}
}

func (s *Server) Stop() {
	for _, m := range s.Modules() {
		m.Stop()
	}
}

// APIConfig describes the public API.
func APIConfig() huma.Config {
	cfg := huma.DefaultConfig("Votefinder API", version.Version)
	cfg.Info.Description = "Vote tallies for forum mafia games"
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}
	return cfg
}

func (s *Server) mount(prefix string) huma.API {
	base := s.Router
	if prefix != "" {
		base = chi.NewRouter()
		s.Router.Mount(prefix, base)
	}
	api := humachi.New(base, APIConfig())

	for _, m := range s.Modules() {
		m.RegisterUnifiedRoutes(api, "/"+m.Name())
		base.Route("/modules/"+m.Name(), m.Routes)
	}
	return api
}

func newRouter(mongodb *database.MongoDB, redis *database.Redis) chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors(config.GetCORSOrigins()))
	r.Use(handlers.TracingMiddleware(config.GetServiceName()))

	checks := map[string]handlers.Checker{"mongodb": mongodb, "redis": nil}
	if redis != nil {
		checks["redis"] = redis
	}
	r.Get("/health", handlers.DependencyHealthHandler(checks))
	return r
}

// requestLogger logs requests except health probes.
func requestLogger(next http.Handler) http.Handler {
	logged := chimw.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

// cors allows credentialed requests from the listed origins. "*" allows any origin.
func cors(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed["*"] || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
