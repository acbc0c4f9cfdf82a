package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/LoganMeitz/votefinder/internal/auth/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	players map[string]*models.AuthenticatedPlayer
}

func (s stubValidator) ValidateToken(token string) (*models.AuthenticatedPlayer, error) {
	if p, ok := s.players[token]; ok {
		return p, nil
	}
	return nil, NewAuthError("invalid token")
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	return se.GetStatus()
}

func TestExtractBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":    "abc",
		"bearer abc ":   "abc",
		"Basic abc":     "",
		"Bearer":        "",
		"":              "",
		"  Bearer  xyz": "xyz",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractBearerToken(in), in)
	}
}

func TestExtractTokenFromCookie(t *testing.T) {
	assert.Equal(t, "tok", ExtractTokenFromCookie("a=1; votefinder_token=tok; b=2"))
	assert.Equal(t, "", ExtractTokenFromCookie("a=1; other_token=tok"))
}

func TestHumaAuth(t *testing.T) {
	authorizer := newTestAuthorizer(t, "admin")
	require.NoError(t, authorizer.GrantGameModerator("mod", "g1"))

	auth := NewHumaAuth(stubValidator{players: map[string]*models.AuthenticatedPlayer{
		"admin-token":  {PlayerID: "admin", PlayerName: "Admin"},
		"mod-token":    {PlayerID: "mod", PlayerName: "Mod"},
		"player-token": {PlayerID: "player", PlayerName: "Player"},
	}}, authorizer)

	t.Run("missing token", func(t *testing.T) {
		_, err := auth.Authenticate("", "")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := auth.Authenticate("Bearer nope", "")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		assert.Nil(t, auth.OptionalAuth("Bearer nope", ""))
	})

	t.Run("cookie fallback", func(t *testing.T) {
		p, err := auth.Authenticate("", "votefinder_token=player-token")
		require.NoError(t, err)
		assert.Equal(t, "player", p.PlayerID)
	})

	t.Run("admin required", func(t *testing.T) {
		_, err := auth.RequireAdmin("Bearer player-token", "")
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))

		p, err := auth.RequireAdmin("Bearer admin-token", "")
		require.NoError(t, err)
		assert.True(t, auth.IsAdmin(p))
	})

	t.Run("game moderator", func(t *testing.T) {
		_, err := auth.RequireGameModerator("Bearer mod-token", "", "g1")
		require.NoError(t, err)

		_, err = auth.RequireGameModerator("Bearer mod-token", "", "g2")
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))

		_, err = auth.RequireGameModerator("Bearer admin-token", "", "g2")
		require.NoError(t, err)
	})
}
