package auth

import (
	"log/slog"

	"github.com/LoganMeitz/votefinder/internal/auth/routes"
	"github.com/LoganMeitz/votefinder/internal/auth/services"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module issues and validates player bearer tokens.
type Module struct {
	*module.BaseModule
	tokens  *services.TokenService
	service *services.AuthService
	auth    *middleware.HumaAuth
	routes  *routes.Routes
}

// New builds the auth module. players resolves display names for issued tokens.
func New(mongodb *database.MongoDB, redis *database.Redis, players services.PlayerLookup, authorizer *middleware.Authorizer) *Module {
	tokens := services.NewTokenService(config.GetJWTSecret(), config.GetJWTTTL())
	service := services.NewAuthService(tokens, players, config.GetAdminAPIKey())
	humaAuth := middleware.NewHumaAuth(tokens, authorizer)

	if config.GetAdminAPIKey() == "" {
		slog.Warn("ADMIN_API_KEY is not set; token issuance is disabled")
	}

	return &Module{
		BaseModule: module.NewBaseModule("auth", mongodb, redis),
		tokens:     tokens,
		service:    service,
		auth:       humaAuth,
		routes:     routes.NewRoutes(service, humaAuth),
	}
}

// HumaAuth is shared by every module that guards routes.
func (m *Module) HumaAuth() *middleware.HumaAuth {
	return m.auth
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
}

var _ module.APIModule = (*Module)(nil)
