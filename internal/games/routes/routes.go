package routes

import (
	"context"

	"github.com/LoganMeitz/votefinder/internal/auth/models"
	"github.com/LoganMeitz/votefinder/internal/games/dto"
	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/internal/games/services"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/danielgtaylor/huma/v2"
)

type Routes struct {
	service *services.Service
	auth    *middleware.HumaAuth
}

func NewRoutes(service *services.Service, auth *middleware.HumaAuth) *Routes {
	return &Routes{service: service, auth: auth}
}

// RegisterUnifiedRoutes registers the game endpoints. The global update feed lives at
// updatesPath so it can sit outside the games prefix.
func (r *Routes) RegisterUnifiedRoutes(api huma.API, basePath, updatesPath string) {
	tags := []string{"Games"}

	huma.Register(api, huma.Operation{OperationID: "games-create", Method: "POST", Path: basePath,
		Summary: "Create a game", Tags: tags}, r.create)
	huma.Register(api, huma.Operation{OperationID: "games-list", Method: "GET", Path: basePath,
		Summary: "List games", Tags: tags}, r.list)
	huma.Register(api, huma.Operation{OperationID: "games-get", Method: "GET", Path: basePath + "/{slug}",
		Summary: "Get a game", Tags: tags}, r.get)
	huma.Register(api, huma.Operation{OperationID: "games-update", Method: "PATCH", Path: basePath + "/{slug}",
		Summary: "Change game settings", Description: "Deadline, timezone, comment and display options.", Tags: tags}, r.update)

	huma.Register(api, huma.Operation{OperationID: "games-start", Method: "POST", Path: basePath + "/{slug}/start",
		Summary: "Start a pregame game", Tags: tags}, r.start)
	huma.Register(api, huma.Operation{OperationID: "games-close", Method: "POST", Path: basePath + "/{slug}/close",
		Summary: "Close a game", Tags: tags}, r.close)
	huma.Register(api, huma.Operation{OperationID: "games-reopen", Method: "POST", Path: basePath + "/{slug}/reopen",
		Summary: "Re-open a closed game", Tags: tags}, r.reopen)

	huma.Register(api, huma.Operation{OperationID: "games-posts", Method: "GET", Path: basePath + "/{slug}/posts",
		Summary: "List ingested posts", Tags: tags}, r.posts)
	huma.Register(api, huma.Operation{OperationID: "games-start-day", Method: "POST", Path: basePath + "/{slug}/days",
		Summary: "Start a day", Description: "Upserts the day at the given post, or at the latest post. Clears the deadline.", Tags: tags}, r.startDay)

	huma.Register(api, huma.Operation{OperationID: "games-roster", Method: "GET", Path: basePath + "/{slug}/roster",
		Summary: "List the roster", Tags: tags}, r.roster)
	huma.Register(api, huma.Operation{OperationID: "games-roster-add", Method: "POST", Path: basePath + "/{slug}/roster",
		Summary: "Add a player", Tags: tags}, r.addPlayer)
	huma.Register(api, huma.Operation{OperationID: "games-roster-status", Method: "PUT", Path: basePath + "/{slug}/roster/{player_id}",
		Summary: "Change a player's status", Tags: tags}, r.setStatus)
	huma.Register(api, huma.Operation{OperationID: "games-roster-prune", Method: "DELETE", Path: basePath + "/{slug}/roster/spectators",
		Summary: "Remove every spectator", Tags: tags}, r.prune)

	huma.Register(api, huma.Operation{OperationID: "games-factions", Method: "GET", Path: basePath + "/{slug}/factions",
		Summary: "List factions", Tags: tags}, r.factions)
	huma.Register(api, huma.Operation{OperationID: "games-factions-add", Method: "POST", Path: basePath + "/{slug}/factions",
		Summary: "Add a faction", Description: "Returns the existing faction when one with the same name and kind exists.", Tags: tags}, r.addFaction)
	huma.Register(api, huma.Operation{OperationID: "games-factions-delete", Method: "DELETE", Path: basePath + "/{slug}/factions/{faction_id}",
		Summary: "Delete a faction", Tags: tags}, r.deleteFaction)

	huma.Register(api, huma.Operation{OperationID: "games-updates", Method: "GET", Path: basePath + "/{slug}/updates",
		Summary: "Status updates of a game", Tags: tags}, r.updates)
	huma.Register(api, huma.Operation{OperationID: "updates-global", Method: "GET", Path: updatesPath,
		Summary: "Status updates across every game", Tags: tags}, r.globalUpdates)
}

func (r *Routes) load(ctx context.Context, slug string) (*gamemodels.Game, error) {
	game, err := r.service.GetBySlug(ctx, slug)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load game")
	}
	return game, nil
}

// moderate loads the game and checks the caller may moderate it.
func (r *Routes) moderate(ctx context.Context, h dto.AuthHeaders, slug string) (*gamemodels.Game, *models.AuthenticatedPlayer, error) {
	game, err := r.load(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	caller, err := r.auth.RequireGameModerator(h.Authorization, h.Cookie, game.ID)
	if err != nil {
		return nil, nil, err
	}
	return game, caller, nil
}

func (r *Routes) respond(ctx context.Context, game *gamemodels.Game) *dto.GameOutput {
	out := &dto.GameOutput{Body: dto.GameResponse{Game: *game}}
	if day, err := r.service.CurrentDay(ctx, game.ID); err == nil {
		out.Body.CurrentDay = day
	}
	return out
}

func (r *Routes) create(ctx context.Context, input *dto.CreateGameInput) (*dto.GameOutput, error) {
	if _, err := r.auth.RequirePermission(input.Authorization, input.Cookie, middleware.ResourceGames, middleware.ActionCreate); err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	game, err := r.service.Create(ctx, services.CreateParams{
		Name:        input.Body.Name,
		ThreadID:    input.Body.ThreadID,
		URL:         input.Body.URL,
		ModeratorID: input.Body.ModeratorID,
		Timezone:    input.Body.Timezone,
	})
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to create game")
	}
	return r.respond(ctx, game), nil
}

func (r *Routes) list(ctx context.Context, input *dto.ListGamesInput) (*dto.ListGamesOutput, error) {
	state := gamemodels.State(input.State)
	switch state {
	case "", gamemodels.StatePregame, gamemodels.StateStarted, gamemodels.StateClosed:
	default:
		return nil, huma.Error422UnprocessableEntity("state must be pregame, started or closed")
	}
	games, total, err := r.service.List(ctx, state, input.Page, input.Limit)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list games")
	}
	return &dto.ListGamesOutput{Body: dto.GameListResponse{Games: games, Total: total, Page: input.Page, Limit: input.Limit}}, nil
}

func (r *Routes) get(ctx context.Context, input *dto.GameSlugInput) (*dto.GameOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return r.respond(ctx, game), nil
}

func (r *Routes) update(ctx context.Context, input *dto.UpdateGameInput) (*dto.GameOutput, error) {
	game, caller, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	b := input.Body
	updated, err := r.service.UpdateSettings(ctx, game, caller.PlayerName, services.SettingsUpdate{
		Name:           b.Name,
		URL:            b.URL,
		Timezone:       b.Timezone,
		Comment:        b.Comment,
		HideZeroVotes:  b.HideZeroVotes,
		PostExecutions: b.PostExecutions,
		Deadline:       b.Deadline,
		ClearDeadline:  b.ClearDeadline,
	})
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to update game")
	}
	return r.respond(ctx, updated), nil
}

func (r *Routes) start(ctx context.Context, input *dto.StartGameInput) (*dto.GameOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	started, err := r.service.Start(ctx, game, input.Body.StartDayOne)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to start game")
	}
	return r.respond(ctx, started), nil
}

func (r *Routes) close(ctx context.Context, input *dto.CloseGameInput) (*dto.GameOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	var closed *gamemodels.Game
	if input.Body.WinningFaction != "" {
		closed, err = r.service.CloseForFaction(ctx, game, input.Body.WinningFaction)
	} else {
		closed, err = r.service.Close(ctx, game, input.Body.Winner)
	}
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to close game")
	}
	return r.respond(ctx, closed), nil
}

func (r *Routes) reopen(ctx context.Context, input *dto.ReopenGameInput) (*dto.GameOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	reopened, err := r.service.Reopen(ctx, game)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to re-open game")
	}
	return r.respond(ctx, reopened), nil
}

func (r *Routes) posts(ctx context.Context, input *dto.ListPostsInput) (*dto.ListPostsOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	posts, pages, err := r.service.Posts(ctx, game.ID, input.Page)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list posts")
	}
	return &dto.ListPostsOutput{Body: dto.PostListResponse{Posts: posts, Page: input.Page, Pages: pages}}, nil
}

func (r *Routes) startDay(ctx context.Context, input *dto.StartDayInput) (*dto.DayOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	var day *gamemodels.GameDay
	if input.Body.PostID != "" {
		day, err = r.service.StartDay(ctx, game, input.Body.Day, input.Body.PostID)
	} else {
		day, err = r.service.NewDay(ctx, game, input.Body.Day)
	}
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to start day")
	}
	return &dto.DayOutput{Body: *day}, nil
}

func (r *Routes) roster(ctx context.Context, input *dto.GameSlugInput) (*dto.RosterOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	members, err := r.service.Roster(ctx, game.ID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load roster")
	}
	alive := 0
	for _, m := range members {
		if m.Status == tally.StatusAlive {
			alive++
		}
	}
	return &dto.RosterOutput{Body: dto.RosterResponse{Players: members, Alive: alive}}, nil
}

func (r *Routes) addPlayer(ctx context.Context, input *dto.AddPlayerInput) (*dto.RosterMemberOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	member, err := r.service.AddPlayer(ctx, game, input.Body.Name)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to add player")
	}
	return &dto.RosterMemberOutput{Body: *member}, nil
}

func (r *Routes) setStatus(ctx context.Context, input *dto.SetPlayerStatusInput) (*dto.RosterMemberOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	member, err := r.service.SetPlayerStatus(ctx, game, input.PlayerID, tally.Status(input.Body.Status))
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to change player status")
	}
	return &dto.RosterMemberOutput{Body: *member}, nil
}

func (r *Routes) prune(ctx context.Context, input *dto.PruneSpectatorsInput) (*dto.PruneSpectatorsOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	n, err := r.service.PruneSpectators(ctx, game)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to remove spectators")
	}
	return &dto.PruneSpectatorsOutput{Body: dto.PruneResponse{Removed: n}}, nil
}

func (r *Routes) factions(ctx context.Context, input *dto.GameSlugInput) (*dto.FactionListOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	factions, err := r.service.Factions(ctx, game.ID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list factions")
	}
	return &dto.FactionListOutput{Body: dto.FactionListResponse{Factions: factions}}, nil
}

func (r *Routes) addFaction(ctx context.Context, input *dto.AddFactionInput) (*dto.FactionOutput, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(&input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	faction, created, err := r.service.AddFaction(ctx, game, input.Body.Name, input.Body.Kind)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to add faction")
	}
	return &dto.FactionOutput{Body: dto.FactionResponse{Faction: *faction, Created: created}}, nil
}

func (r *Routes) deleteFaction(ctx context.Context, input *dto.DeleteFactionInput) (*struct{}, error) {
	game, _, err := r.moderate(ctx, input.AuthHeaders, input.Slug)
	if err != nil {
		return nil, err
	}
	if err := r.service.DeleteFaction(ctx, game, input.FactionID); err != nil {
		return nil, handlers.HumaError(err, "Failed to delete faction")
	}
	return nil, nil
}

func (r *Routes) updates(ctx context.Context, input *dto.GameUpdatesInput) (*dto.UpdatesOutput, error) {
	game, err := r.load(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	updates, err := r.service.Updates(ctx, game.ID, input.Limit)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load updates")
	}
	return &dto.UpdatesOutput{Body: dto.UpdatesResponse{Updates: updates}}, nil
}

func (r *Routes) globalUpdates(ctx context.Context, input *dto.GlobalUpdatesInput) (*dto.UpdatesOutput, error) {
	updates, err := r.service.Updates(ctx, "", input.Limit)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load updates")
	}
	return &dto.UpdatesOutput{Body: dto.UpdatesResponse{Updates: updates}}, nil
}
