package models

import (
	"time"

	"github.com/LoganMeitz/votefinder/pkg/tally"
)

const VotesCollection = "votes"

// Vote is one persisted ledger declaration.
type Vote struct {
	ID          string            `bson:"_id" json:"id"`
	GameID      string            `bson:"game_id" json:"game_id"`
	PostID      string            `bson:"post_id" json:"post_id"`
	AuthorID    string            `bson:"author_id" json:"author_id"`
	RawTarget   string            `bson:"raw_target" json:"raw_target"`
	TargetID    string            `bson:"target_id,omitempty" json:"target_id,omitempty"`
	Unvote      bool              `bson:"unvote" json:"unvote"`
	Manual      bool              `bson:"manual" json:"manual"`
	Disposition tally.Disposition `bson:"disposition" json:"disposition"`
	Order       tally.OrderKey    `bson:"order" json:"order"`
	PostedAt    time.Time         `bson:"posted_at" json:"posted_at"`
	URL         string            `bson:"url,omitempty" json:"url,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updated_at"`
}

// Declaration converts the stored row to the engine's ledger shape.
func (v Vote) Declaration() tally.Declaration {
	return tally.Declaration{
		ID:          tally.DeclarationID(v.ID),
		Author:      tally.ParticipantID(v.AuthorID),
		RawTarget:   v.RawTarget,
		Target:      tally.ParticipantID(v.TargetID),
		Unvote:      v.Unvote,
		Manual:      v.Manual,
		Disposition: v.Disposition,
		Order:       v.Order,
		Timestamp:   v.PostedAt,
		URL:         v.URL,
	}
}
