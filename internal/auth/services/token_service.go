package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/LoganMeitz/votefinder/internal/auth/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs and validates HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// Generate issues a token for the player.
func (s *TokenService) Generate(playerID, playerName string) (*models.IssuedToken, error) {
	if len(s.secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  playerID,
		"name": playerName,
		"exp":  expiresAt.Unix(),
		"iat":  issuedAt.Unix(),
		"iss":  models.Issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateToken checks signature, expiry and issuer and returns the player behind the token.
func (s *TokenService) ValidateToken(tokenString string) (*models.AuthenticatedPlayer, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(models.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid JWT token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid JWT claims")
	}

	playerID, _ := claims["sub"].(string)
	if playerID == "" {
		return nil, errors.New("token has no subject")
	}
	name, _ := claims["name"].(string)

	player := &models.AuthenticatedPlayer{PlayerID: playerID, PlayerName: name}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		player.ExpiresAt = exp.Time
	}
	return player, nil
}
