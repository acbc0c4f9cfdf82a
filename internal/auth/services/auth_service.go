package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LoganMeitz/votefinder/internal/auth/models"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrUnknownPlayer   = errors.New("unknown player")
)

// PlayerLookup resolves a player id to its display name.
type PlayerLookup interface {
	PlayerName(ctx context.Context, playerID string) (string, error)
}

// AuthService issues tokens to players on behalf of the operator holding the admin key.
type AuthService struct {
	tokens   *TokenService
	players  PlayerLookup
	adminKey string
}

func NewAuthService(tokens *TokenService, players PlayerLookup, adminKey string) *AuthService {
	return &AuthService{tokens: tokens, players: players, adminKey: adminKey}
}

// Tokens exposes the validator used by the HTTP middleware.
func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

// IssueToken signs a token for playerID after checking the operator key.
func (s *AuthService) IssueToken(ctx context.Context, adminKey, playerID string) (*models.IssuedToken, error) {
	ctx, span := handlers.StartSpan(ctx, "auth", "issue_token")
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.adminKey)) != 1 {
		err = ErrInvalidAdminKey
		return nil, err
	}

	name, lookupErr := s.players.PlayerName(ctx, playerID)
	if lookupErr != nil {
		err = fmt.Errorf("%w: %v", ErrUnknownPlayer, lookupErr)
		return nil, err
	}

	token, err := s.tokens.Generate(playerID, name)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Issued player token", "player_id", playerID, "expires_at", token.ExpiresAt)
	return token, nil
}
