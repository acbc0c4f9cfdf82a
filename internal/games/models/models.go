package models

import (
	"time"

	"github.com/LoganMeitz/votefinder/pkg/tally"
)

const (
	GamesCollection         = "games"
	PlayerStatesCollection  = "player_states"
	GameDaysCollection      = "game_days"
	PostsCollection         = "posts"
	StatusUpdatesCollection = "game_status_updates"
	FactionsCollection      = "game_factions"
)

// State is the lifecycle stage of a game.
type State string

const (
	StatePregame State = "pregame"
	StateStarted State = "started"
	StateClosed  State = "closed"
)

// Game is one forum thread being tallied.
type Game struct {
	ID               string     `bson:"_id" json:"id"`
	Slug             string     `bson:"slug" json:"slug"`
	Name             string     `bson:"name" json:"name"`
	ThreadID         string     `bson:"thread_id" json:"thread_id"`
	URL              string     `bson:"url,omitempty" json:"url,omitempty"`
	State            State      `bson:"state" json:"state"`
	ModeratorID      string     `bson:"moderator_id" json:"moderator_id"`
	Deadline         *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Timezone         string     `bson:"timezone" json:"timezone"`
	Comment          string     `bson:"comment,omitempty" json:"comment,omitempty"`
	HideZeroVotes    bool       `bson:"hide_zero_votes" json:"hide_zero_votes"`
	PostExecutions   bool       `bson:"post_executions" json:"post_executions"`
	LastPostAt       *time.Time `bson:"last_post_at,omitempty" json:"last_post_at,omitempty"`
	LastPostSequence int64      `bson:"last_post_sequence" json:"last_post_sequence"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

// PlayerState is a player's standing in one game.
type PlayerState struct {
	ID       string       `bson:"_id" json:"id"`
	GameID   string       `bson:"game_id" json:"game_id"`
	PlayerID string       `bson:"player_id" json:"player_id"`
	Status   tally.Status `bson:"status" json:"status"`
}

// GameDay records the post that opened a day.
type GameDay struct {
	ID                string `bson:"_id" json:"id"`
	GameID            string `bson:"game_id" json:"game_id"`
	DayNumber         int    `bson:"day_number" json:"day_number"`
	StartPostID       string `bson:"start_post_id" json:"start_post_id"`
	StartPostSequence int64  `bson:"start_post_sequence" json:"start_post_sequence"`
}

// Post is one ingested thread post. Sequence orders posts inside a game.
type Post struct {
	ID          string    `bson:"_id" json:"id"`
	GameID      string    `bson:"game_id" json:"game_id"`
	Sequence    int64     `bson:"sequence" json:"sequence"`
	ForumPostID string    `bson:"forum_post_id" json:"forum_post_id"`
	AuthorID    string    `bson:"author_id" json:"author_id"`
	AuthorName  string    `bson:"author_name" json:"author_name"`
	PostedAt    time.Time `bson:"posted_at" json:"posted_at"`
	URL         string    `bson:"url,omitempty" json:"url,omitempty"`
	PageNumber  int       `bson:"page_number" json:"page_number"`
}

// StatusUpdate is one line of the game's announcement feed.
type StatusUpdate struct {
	ID        string    `bson:"_id" json:"id"`
	GameID    string    `bson:"game_id" json:"game_id"`
	Message   string    `bson:"message" json:"message"`
	Critical  bool      `bson:"critical" json:"critical"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Faction is one side of a game. Winning is set when the game closes in its favour.
type Faction struct {
	ID        string    `bson:"_id" json:"id"`
	GameID    string    `bson:"game_id" json:"game_id"`
	Name      string    `bson:"name" json:"name"`
	Kind      string    `bson:"kind,omitempty" json:"kind,omitempty"`
	Winning   bool      `bson:"winning" json:"winning"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
