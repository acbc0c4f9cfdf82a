package dto

import (
	"time"

	gamedto "github.com/LoganMeitz/votefinder/internal/games/dto"
)

type GameSlugInput struct {
	Slug string `path:"slug" description:"Game slug"`
}

type VoteLogInput struct {
	Slug  string `path:"slug" description:"Game slug"`
	Voter string `query:"voter" description:"Player id or slug; empty lists every voter"`
}

type PendingInput struct {
	gamedto.AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
}

// IngestDeclaration is one vote or unvote found by the extractor in a post.
type IngestDeclaration struct {
	RawTarget string `json:"raw_target,omitempty" maxLength:"200" validate:"required_without=Unvote,max=200" description:"Target text as written; ignored for unvotes"`
	Unvote    bool   `json:"unvote,omitempty" description:"Withdraws the author's vote"`
}

type IngestPost struct {
	ForumPostID  string              `json:"forum_post_id" minLength:"1" required:"true" validate:"required" description:"Forum id of the post"`
	AuthorName   string              `json:"author_name" minLength:"1" maxLength:"100" required:"true" validate:"required,max=100" description:"Display name of the author"`
	PostedAt     time.Time           `json:"posted_at" required:"true" validate:"required" description:"When the post was made"`
	URL          string              `json:"url,omitempty" validate:"omitempty,url" description:"Permalink of the post"`
	PageNumber   int                 `json:"page_number,omitempty" minimum:"0" validate:"min=0" description:"Thread page the post is on"`
	Declarations []IngestDeclaration `json:"declarations,omitempty" validate:"dive" description:"Declarations in the order they appear"`
}

// IngestRequest carries posts in thread order.
type IngestRequest struct {
	Posts []IngestPost `json:"posts" minItems:"1" maxItems:"500" required:"true" validate:"required,min=1,max=500,dive" description:"New posts in thread order"`
}

type IngestInput struct {
	gamedto.AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body IngestRequest
}

// ManualVoteRequest adds a moderator vote. An empty author votes as the anonymous player.
type ManualVoteRequest struct {
	AuthorID string `json:"author_id,omitempty" description:"Voting player; empty for an anonymous vote"`
	TargetID string `json:"target_id,omitempty" validate:"required_without=Unvote" description:"Player voted for"`
	Unvote   bool   `json:"unvote,omitempty" description:"Record an unvote instead"`
}

type ManualVoteInput struct {
	gamedto.AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body ManualVoteRequest
}

type GlobalVoteInput struct {
	gamedto.AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
}

type VoteIDInput struct {
	gamedto.AuthHeaders
	VoteID string `path:"vote_id" description:"Vote id"`
}

// ResolveRequest is the moderator's answer for a pending vote.
type ResolveRequest struct {
	Decision string `json:"decision" enum:"assign,ignore,no_execute" required:"true" validate:"required,decision" description:"assign, ignore or no_execute"`
	PlayerID string `json:"player_id,omitempty" validate:"required_if=Decision assign" description:"Player the text refers to; required for assign"`
}

type ResolveInput struct {
	gamedto.AuthHeaders
	VoteID string `path:"vote_id" description:"Vote id"`
	Body   ResolveRequest
}

type ReplaceRequest struct {
	OutgoingID   string `json:"outgoing_id" minLength:"1" required:"true" validate:"required" description:"Player leaving the game"`
	IncomingName string `json:"incoming_name" minLength:"1" maxLength:"100" required:"true" validate:"required,max=100" description:"Player taking over; created when unknown"`
	ClearVotes   bool   `json:"clear_votes,omitempty" description:"Delete the outgoing player's votes instead of handing them over"`
}

type ReplaceInput struct {
	gamedto.AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body ReplaceRequest
}
