package middleware

import (
	"log/slog"

	"github.com/LoganMeitz/votefinder/internal/auth/models"

	"github.com/danielgtaylor/huma/v2"
)

// HumaAuth turns request headers into an authenticated, authorized player for Huma handlers.
type HumaAuth struct {
	validator  TokenValidator
	authorizer *Authorizer
}

func NewHumaAuth(validator TokenValidator, authorizer *Authorizer) *HumaAuth {
	return &HumaAuth{validator: validator, authorizer: authorizer}
}

// Authorizer exposes the underlying casbin authorizer.
func (m *HumaAuth) Authorizer() *Authorizer {
	return m.authorizer
}

// Authenticate validates the bearer token, falling back to the auth cookie.
func (m *HumaAuth) Authenticate(authHeader, cookieHeader string) (*models.AuthenticatedPlayer, error) {
	token := ExtractBearerToken(authHeader)
	if token == "" && cookieHeader != "" {
		token = ExtractTokenFromCookie(cookieHeader)
	}
	if token == "" {
		return nil, huma.Error401Unauthorized("Authentication required")
	}

	player, err := m.validator.ValidateToken(token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid authentication token", err)
	}
	return player, nil
}

// OptionalAuth returns nil for anonymous or invalid callers.
func (m *HumaAuth) OptionalAuth(authHeader, cookieHeader string) *models.AuthenticatedPlayer {
	player, _ := m.Authenticate(authHeader, cookieHeader)
	return player
}

// RequirePermission authenticates the caller and checks one global permission.
func (m *HumaAuth) RequirePermission(authHeader, cookieHeader, resource, action string) (*models.AuthenticatedPlayer, error) {
	player, err := m.Authenticate(authHeader, cookieHeader)
	if err != nil {
		return nil, err
	}
	if err := m.check(player, GlobalDomain, resource, action); err != nil {
		return nil, err
	}
	return player, nil
}

// RequireAdmin authenticates the caller and requires the admin role.
func (m *HumaAuth) RequireAdmin(authHeader, cookieHeader string) (*models.AuthenticatedPlayer, error) {
	return m.RequirePermission(authHeader, cookieHeader, ResourcePlayers, ActionAdmin)
}

// RequireGameModerator authenticates the caller and requires moderate rights on the game.
func (m *HumaAuth) RequireGameModerator(authHeader, cookieHeader, gameID string) (*models.AuthenticatedPlayer, error) {
	player, err := m.Authenticate(authHeader, cookieHeader)
	if err != nil {
		return nil, err
	}
	if err := m.check(player, GameDomain(gameID), ResourceGames, ActionModerate); err != nil {
		return nil, err
	}
	return player, nil
}

// IsAdmin never fails; errors are logged and treated as "no".
func (m *HumaAuth) IsAdmin(player *models.AuthenticatedPlayer) bool {
	if player == nil || m.authorizer == nil {
		return false
	}
	ok, err := m.authorizer.IsAdmin(player.PlayerID)
	if err != nil {
		slog.Error("Admin check failed", "player_id", player.PlayerID, "error", err)
		return false
	}
	return ok
}

func (m *HumaAuth) check(player *models.AuthenticatedPlayer, domain, resource, action string) error {
	if m.authorizer == nil {
		return huma.Error403Forbidden("Authorization is not configured")
	}
	ok, err := m.authorizer.Can(player.PlayerID, domain, resource, action)
	if err != nil {
		slog.Error("Permission check failed", "player_id", player.PlayerID, "resource", resource, "action", action, "error", err)
		return huma.Error500InternalServerError("Permission check failed")
	}
	if !ok {
		return huma.Error403Forbidden("Permission denied")
	}
	return nil
}
