package dto

import "time"

// TokenResponse is a freshly issued token.
type TokenResponse struct {
	Token     string    `json:"token" description:"Signed bearer token"`
	PlayerID  string    `json:"player_id" description:"Player the token belongs to"`
	ExpiresAt time.Time `json:"expires_at" description:"Expiry of the token"`
}

type IssueTokenOutput struct {
	Body TokenResponse
}

// AuthStatusResponse describes the caller.
type AuthStatusResponse struct {
	Authenticated bool       `json:"authenticated" description:"Whether a valid token was presented"`
	PlayerID      string     `json:"player_id,omitempty" description:"Authenticated player"`
	PlayerName    string     `json:"player_name,omitempty" description:"Display name of the player"`
	IsAdmin       bool       `json:"is_admin" description:"Whether the player holds the admin role"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" description:"Token expiry"`
}

type AuthStatusOutput struct {
	Body AuthStatusResponse
}
