package models

import "time"

// Issuer is written to and required in every token.
const Issuer = "votefinder"

// AuthenticatedPlayer is the caller resolved from a bearer token.
type AuthenticatedPlayer struct {
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IssuedToken is a freshly signed bearer token.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
