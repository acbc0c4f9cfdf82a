package games

import (
	"context"
	"strings"

	"github.com/LoganMeitz/votefinder/internal/games/routes"
	"github.com/LoganMeitz/votefinder/internal/games/services"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module owns games, rosters, days, posts and the status feed.
type Module struct {
	*module.BaseModule
	service *services.Service
	routes  *routes.Routes
}

func New(mongodb *database.MongoDB, redis *database.Redis, players services.Players, auth *middleware.HumaAuth) *Module {
	var grants services.Grants
	if a := auth.Authorizer(); a != nil {
		grants = a
	}
	service := services.NewService(mongodb, players, grants)
	return &Module{
		BaseModule: module.NewBaseModule("games", mongodb, redis),
		service:    service,
		routes:     routes.NewRoutes(service, auth),
	}
}

func (m *Module) Service() *services.Service {
	return m.service
}

func (m *Module) Initialize(ctx context.Context) error {
	return m.service.Repository().CreateIndexes(ctx)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// RegisterUnifiedRoutes mounts the game routes at basePath and the global feed next to it.
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath, updatesPath(basePath))
}

// updatesPath turns ".../games" into ".../updates".
func updatesPath(basePath string) string {
	if prefix, ok := strings.CutSuffix(basePath, "/games"); ok {
		return prefix + "/updates"
	}
	return basePath + "/updates"
}

var _ module.APIModule = (*Module)(nil)
