package dto

import (
	"github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/internal/votes/services"
)

type VoteCountOutput struct {
	Body services.VoteCountView
}

type VoteLogOutput struct {
	Body services.VoteLogView
}

type PendingOutput struct {
	Body services.PendingView
}

type IngestOutput struct {
	Body services.IngestResult
}

type VoteOutput struct {
	Body models.Vote
}

type VoteListResponse struct {
	Votes []*models.Vote `json:"votes"`
}

type VoteListOutput struct {
	Body VoteListResponse
}

type ResolveOutput struct {
	Body services.ResolveResult
}

type ReplaceOutput struct {
	Body services.ReplaceResult
}
