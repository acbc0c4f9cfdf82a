package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LoganMeitz/votefinder/internal/scheduler/dto"
	"github.com/LoganMeitz/votefinder/internal/scheduler/routes"
	"github.com/LoganMeitz/votefinder/internal/scheduler/services"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module runs periodic maintenance such as the inactivity sweep.
type Module struct {
	*module.BaseModule
	repo   *services.Repository
	engine *services.Engine
	routes *routes.Routes
}

func New(mongodb *database.MongoDB, redis *database.Redis, games services.GameCloser, auth *middleware.HumaAuth) (*Module, error) {
	repo := services.NewRepository(mongodb.Database)
	engine := services.NewEngine(repo, redis)

	schedule := config.GetInactivitySweepSchedule()
	if err := dto.ValidateSchedule(schedule); err != nil {
		return nil, fmt.Errorf("INACTIVITY_SWEEP_SCHEDULE: %w", err)
	}
	if err := engine.Register(services.InactivitySweep(games, config.GetInactivityDays(), schedule)); err != nil {
		return nil, err
	}

	return &Module{
		BaseModule: module.NewBaseModule("scheduler", mongodb, redis),
		repo:       repo,
		engine:     engine,
		routes:     routes.NewRoutes(engine, auth),
	}, nil
}

func (m *Module) Engine() *services.Engine {
	return m.engine
}

func (m *Module) Initialize(ctx context.Context) error {
	return m.repo.CreateIndexes(ctx)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
}

// StartBackgroundTasks starts the cron engine and blocks until the module stops.
func (m *Module) StartBackgroundTasks(ctx context.Context) {
	slog.Info("Starting scheduler background tasks", "module", m.Name())
	m.engine.Start()
	m.BaseModule.StartBackgroundTasks(ctx)
}

func (m *Module) Stop() {
	m.engine.Stop()
	m.BaseModule.Stop()
}

var _ module.APIModule = (*Module)(nil)
