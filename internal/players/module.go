package players

import (
	"context"
	"log/slog"

	"github.com/LoganMeitz/votefinder/internal/players/routes"
	"github.com/LoganMeitz/votefinder/internal/players/services"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module exposes players, aliases and participant merges.
type Module struct {
	*module.BaseModule
	service *services.Service
	routes  *routes.Routes
}

func New(mongodb *database.MongoDB, redis *database.Redis, authorizer *middleware.Authorizer) *Module {
	var grants services.GrantMover
	if authorizer != nil {
		grants = authorizer
	}
	return &Module{
		BaseModule: module.NewBaseModule("players", mongodb, redis),
		service:    services.NewService(mongodb, grants, config.GetAnonymousPlayerName()),
	}
}

// SetAuth wires the route guard once the auth module exists; the auth module in turn
// needs this module's service for name lookups.
func (m *Module) SetAuth(auth *middleware.HumaAuth) {
	m.routes = routes.NewRoutes(m.service, auth)
}

func (m *Module) Service() *services.Service {
	return m.service
}

// Initialize ensures indexes and the anonymous participant exist.
func (m *Module) Initialize(ctx context.Context) error {
	if err := m.service.Repository().CreateIndexes(ctx); err != nil {
		return err
	}
	anon, err := m.service.Anonymous(ctx)
	if err != nil {
		return err
	}
	slog.Info("Players module initialized", "anonymous_player", anon.ID)
	return nil
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
}

var _ module.APIModule = (*Module)(nil)
