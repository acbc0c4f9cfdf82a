package routes

import (
	"context"
	"errors"

	"github.com/LoganMeitz/votefinder/internal/auth/dto"
	"github.com/LoganMeitz/votefinder/internal/auth/services"
	"github.com/LoganMeitz/votefinder/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
)

// Routes serves token issuance and caller introspection.
type Routes struct {
	service *services.AuthService
	auth    *middleware.HumaAuth
}

func NewRoutes(service *services.AuthService, auth *middleware.HumaAuth) *Routes {
	return &Routes{service: service, auth: auth}
}

// RegisterUnifiedRoutes registers the auth endpoints under basePath.
func (r *Routes) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "auth-issue-token",
		Method:      "POST",
		Path:        basePath + "/token",
		Summary:     "Issue a bearer token for a player",
		Description: "Requires the operator key. The token grants whatever the player's roles allow.",
		Tags:        []string{"Auth"},
	}, r.issueToken)

	huma.Register(api, huma.Operation{
		OperationID: "auth-status",
		Method:      "GET",
		Path:        basePath + "/status",
		Summary:     "Describe the current caller",
		Tags:        []string{"Auth"},
	}, r.status)
}

func (r *Routes) issueToken(ctx context.Context, input *dto.IssueTokenInput) (*dto.IssueTokenOutput, error) {
	token, err := r.service.IssueToken(ctx, input.AdminKey, input.Body.PlayerID)
	switch {
	case errors.Is(err, services.ErrInvalidAdminKey):
		return nil, huma.Error401Unauthorized("Invalid admin key")
	case errors.Is(err, services.ErrUnknownPlayer):
		return nil, huma.Error404NotFound("Player not found")
	case err != nil:
		return nil, huma.Error500InternalServerError("Failed to issue token", err)
	}

	return &dto.IssueTokenOutput{Body: dto.TokenResponse{
		Token:     token.Token,
		PlayerID:  input.Body.PlayerID,
		ExpiresAt: token.ExpiresAt,
	}}, nil
}

func (r *Routes) status(ctx context.Context, input *dto.AuthStatusInput) (*dto.AuthStatusOutput, error) {
	player := r.auth.OptionalAuth(input.Authorization, input.Cookie)
	if player == nil {
		return &dto.AuthStatusOutput{Body: dto.AuthStatusResponse{}}, nil
	}

	expiresAt := player.ExpiresAt
	return &dto.AuthStatusOutput{Body: dto.AuthStatusResponse{
		Authenticated: true,
		PlayerID:      player.PlayerID,
		PlayerName:    player.PlayerName,
		IsAdmin:       r.auth.IsAdmin(player),
		ExpiresAt:     &expiresAt,
	}}, nil
}
