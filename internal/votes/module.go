package votes

import (
	"context"
	"fmt"
	"strings"

	gameservices "github.com/LoganMeitz/votefinder/internal/games/services"
	playerservices "github.com/LoganMeitz/votefinder/internal/players/services"
	"github.com/LoganMeitz/votefinder/internal/votes/routes"
	"github.com/LoganMeitz/votefinder/internal/votes/services"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module runs the tally engine over each game's vote ledger.
type Module struct {
	*module.BaseModule
	service *services.Service
	routes  *routes.Routes
}

func New(mongodb *database.MongoDB, redis *database.Redis, games *gameservices.Service, players *playerservices.Service, auth *middleware.HumaAuth) (*Module, error) {
	cache, err := services.NewTallyCache(redis, config.GetTallyCacheTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create tally cache: %w", err)
	}
	locks := services.NewGameLocks(redis, config.GetGameLockTTL())
	service := services.NewService(mongodb, games, players, cache, locks)
	return &Module{
		BaseModule: module.NewBaseModule("votes", mongodb, redis),
		service:    service,
		routes:     routes.NewRoutes(service, games, auth),
	}, nil
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

// RegisterUnifiedRoutes mounts single-vote routes at basePath and per-game routes under the
// sibling games path.
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath, gamesPath(basePath))
}

// gamesPath turns ".../votes" into ".../games".
func gamesPath(basePath string) string {
	if prefix, ok := strings.CutSuffix(basePath, "/votes"); ok {
		return prefix + "/games"
	}
	return basePath + "/games"
}

var _ module.APIModule = (*Module)(nil)
