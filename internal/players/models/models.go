package models

import "time"

const (
	PlayersCollection = "players"
	AliasesCollection = "player_aliases"
)

// Player is a forum user known to the tally, possibly across many games.
type Player struct {
	ID          string     `bson:"_id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	NameLower   string     `bson:"name_lower" json:"-"`
	Slug        string     `bson:"slug" json:"slug"`
	ForumUserID string     `bson:"forum_user_id,omitempty" json:"forum_user_id,omitempty"`
	Anonymous   bool       `bson:"anonymous" json:"anonymous"`
	LastPostAt  *time.Time `bson:"last_post_at,omitempty" json:"last_post_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Alias is a spelling that resolves to a player. Aliases are global, not per game.
type Alias struct {
	ID        string    `bson:"_id" json:"id"`
	PlayerID  string    `bson:"player_id" json:"player_id"`
	Text      string    `bson:"text" json:"text"`
	TextLower string    `bson:"text_lower" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
