package routes

import (
	"context"

	gamedto "github.com/LoganMeitz/votefinder/internal/games/dto"
	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	gameservices "github.com/LoganMeitz/votefinder/internal/games/services"
	"github.com/LoganMeitz/votefinder/internal/votes/dto"
	"github.com/LoganMeitz/votefinder/internal/votes/services"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
)

type Routes struct {
	service *services.Service
	games   *gameservices.Service
	auth    *middleware.HumaAuth
}

func NewRoutes(service *services.Service, games *gameservices.Service, auth *middleware.HumaAuth) *Routes {
	return &Routes{service: service, games: games, auth: auth}
}

// RegisterUnifiedRoutes registers the per-game tally endpoints under gamesPath and the
// endpoints addressing a single vote under basePath.
func (r *Routes) RegisterUnifiedRoutes(api huma.API, basePath, gamesPath string) {
	tags := []string{"Votes"}

	huma.Register(api, huma.Operation{OperationID: "votes-ingest", Method: "POST", Path: gamesPath + "/{slug}/posts",
		Summary: "Ingest posts", Description: "Appends new thread posts and their declarations. Known posts are skipped.", Tags: tags}, r.ingest)
	huma.Register(api, huma.Operation{OperationID: "votes-votecount", Method: "GET", Path: gamesPath + "/{slug}/votecount",
		Summary: "Current vote count", Description: "Tally of the current day. broken is set when no day was started.", Tags: tags}, r.voteCount)
	huma.Register(api, huma.Operation{OperationID: "votes-votelog", Method: "GET", Path: gamesPath + "/{slug}/votelog",
		Summary: "Vote log", Description: "Every declaration of the game in thread order, optionally for one voter.", Tags: tags}, r.voteLog)
	huma.Register(api, huma.Operation{OperationID: "votes-pending", Method: "GET", Path: gamesPath + "/{slug}/votes/pending",
		Summary: "Unresolved votes", Tags: tags}, r.pending)
	huma.Register(api, huma.Operation{OperationID: "votes-add", Method: "POST", Path: gamesPath + "/{slug}/votes",
		Summary: "Add a manual vote", Tags: tags}, r.addVote)
	huma.Register(api, huma.Operation{OperationID: "votes-add-global", Method: "POST", Path: gamesPath + "/{slug}/votes/global",
		Summary: "Vote against every alive player", Tags: tags}, r.addGlobalVote)
	huma.Register(api, huma.Operation{OperationID: "votes-replace", Method: "POST", Path: gamesPath + "/{slug}/replace",
		Summary: "Replace a player", Tags: tags}, r.replace)

	huma.Register(api, huma.Operation{OperationID: "votes-delete", Method: "DELETE", Path: basePath + "/{vote_id}",
		Summary: "Delete a vote", Tags: tags}, r.deleteVote)
	huma.Register(api, huma.Operation{OperationID: "votes-resolve", Method: "POST", Path: basePath + "/{vote_id}/resolve",
		Summary: "Resolve a pending vote", Description: "Applies to every pending vote of the game with the same text.", Tags: tags}, r.resolve)
}

func (r *Routes) load(ctx context.Context, slug string) (*gamemodels.Game, error) {
	game, err := r.games.GetBySlug(ctx, slug)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load game")
	}
	return game, nil
}

func (r *Routes) moderate(ctx context.Context, h gamedto.AuthHeaders, slug string) (*gamemodels.Game, error) {
	game, err := r.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := r.auth.RequireGameModerator(h.Authorization, h.Cookie, game.ID); err != nil {
		return nil, err
	}
	return game, nil
}

// moderateVote loads a vote and its game and checks the caller may moderate that game.
// Anonymous callers are rejected before the vote is looked up.
func (r *Routes) moderateVote(ctx context.Context, h gamedto.AuthHeaders, voteID string) (*gamemodels.Game, error) {
	if _, err := r.auth.Authenticate(h.Authorization, h.Cookie); err != nil {
		return nil, err
	}
	vote, err := r.service.Vote(ctx, voteID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load vote")
	}
	game, err := r.games.GetByID(ctx, vote.GameID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load game")
	}
	if _, err := r.auth.RequireGameModerator(h.Authorization, h.Cookie, game.ID); err != nil {
		return nil, err
	}
	return game, nil
}

func (r *Routes) ingest(ctx context.Context, input *dto.IngestInput) (*dto.IngestOutput, error) {
	game, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	posts := make([]services.IngestPost, 0, len(input.Body.Posts))
	for _, p := range input.Body.Posts {
		post := services.IngestPost{
			ForumPostID: p.ForumPostID,
			AuthorName:  p.AuthorName,
			PostedAt:    p.PostedAt,
			URL:         p.URL,
			PageNumber:  p.PageNumber,
		}
		for _, d := range p.Declarations {
			post.Declarations = append(post.Declarations, services.IngestDeclaration{RawTarget: d.RawTarget, Unvote: d.Unvote})
		}
		posts = append(posts, post)
	}

	result, err := r.service.Ingest(ctx, game, posts)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to ingest posts")
	}
	return &dto.IngestOutput{Body: *result}, nil
}

func (r *Routes) voteCount(ctx context.Context, input *dto.GameSlugInput) (*dto.VoteCountOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	view, err := r.service.VoteCount(ctx, game)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to compute vote count")
	}
	return &dto.VoteCountOutput{Body: *view}, nil
}

func (r *Routes) voteLog(ctx context.Context, input *dto.VoteLogInput) (*dto.VoteLogOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	view, err := r.service.VoteLog(ctx, game, input.Voter)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to build vote log")
	}
	return &dto.VoteLogOutput{Body: *view}, nil
}

func (r *Routes) pending(ctx context.Context, input *dto.PendingInput) (*dto.PendingOutput, error) {
	game, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	view, err := r.service.Pending(ctx, game)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list pending votes")
	}
	return &dto.PendingOutput{Body: *view}, nil
}

func (r *Routes) addVote(ctx context.Context, input *dto.ManualVoteInput) (*dto.VoteOutput, error) {
	game, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	vote, err := r.service.AddManualVote(ctx, game, services.ManualVote{
		AuthorID: input.Body.AuthorID,
		TargetID: input.Body.TargetID,
		Unvote:   input.Body.Unvote,
	})
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to add vote")
	}
	return &dto.VoteOutput{Body: *vote}, nil
}

func (r *Routes) addGlobalVote(ctx context.Context, input *dto.GlobalVoteInput) (*dto.VoteListOutput, error) {
	game, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	votes, err := r.service.AddGlobalVote(ctx, game)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to add global vote")
	}
	return &dto.VoteListOutput{Body: dto.VoteListResponse{Votes: votes}}, nil
}

func (r *Routes) replace(ctx context.Context, input *dto.ReplaceInput) (*dto.ReplaceOutput, error) {
	game, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	result, err := r.service.Replace(ctx, game, input.Body.OutgoingID, input.Body.IncomingName, input.Body.ClearVotes)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to replace player")
	}
	return &dto.ReplaceOutput{Body: *result}, nil
}

func (r *Routes) deleteVote(ctx context.Context, input *dto.VoteIDInput) (*struct{}, error) {
	game, err := r.moderateVote(ctx, input.AuthHeaders, input.VoteID)
	if err != nil {
		return nil, err
	}
	if err := r.service.DeleteVote(ctx, game, input.VoteID); err != nil {
		return nil, handlers.HumaError(err, "Failed to delete vote")
	}
	return nil, nil
}

func (r *Routes) resolve(ctx context.Context, input *dto.ResolveInput) (*dto.ResolveOutput, error) {
	game, err := r.moderateVote(ctx, input.AuthHeaders, input.VoteID)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	decision, err := dto.ParseDecision(input.Body)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	result, err := r.service.Resolve(ctx, game, input.VoteID, decision)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to resolve vote")
	}
	return &dto.ResolveOutput{Body: *result}, nil
}
