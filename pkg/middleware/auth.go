package middleware

import (
	"strings"

	"github.com/LoganMeitz/votefinder/internal/auth/models"
)

// AuthCookieName is the cookie checked when no Authorization header is sent.
const AuthCookieName = "votefinder_token"

// TokenValidator resolves a bearer token to a player.
type TokenValidator interface {
	ValidateToken(token string) (*models.AuthenticatedPlayer, error)
}

// AuthError represents an authentication error
type AuthError struct {
	message string
}

func (e *AuthError) Error() string {
	return e.message
}

// NewAuthError creates a new authentication error
func NewAuthError(message string) *AuthError {
	return &AuthError{message: message}
}

// ExtractBearerToken returns the token of a "Bearer <token>" header, or "".
func ExtractBearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ExtractTokenFromCookie finds the auth cookie in a raw Cookie header.
func ExtractTokenFromCookie(cookieHeader string) string {
	for _, cookie := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(cookie), "=")
		if ok && name == AuthCookieName {
			return value
		}
	}
	return ""
}
