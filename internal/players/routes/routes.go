package routes

import (
	"context"
	"errors"

	"github.com/LoganMeitz/votefinder/internal/players/dto"
	"github.com/LoganMeitz/votefinder/internal/players/services"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
)

type Routes struct {
	service *services.Service
	auth    *middleware.HumaAuth
}

func NewRoutes(service *services.Service, auth *middleware.HumaAuth) *Routes {
	return &Routes{service: service, auth: auth}
}

func (r *Routes) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "players-list",
		Method:      "GET",
		Path:        basePath,
		Summary:     "List players",
		Tags:        []string{"Players"},
	}, r.list)

	huma.Register(api, huma.Operation{
		OperationID: "players-create",
		Method:      "POST",
		Path:        basePath,
		Summary:     "Register a player",
		Tags:        []string{"Players"},
	}, r.create)

	huma.Register(api, huma.Operation{
		OperationID: "players-get",
		Method:      "GET",
		Path:        basePath + "/{player_id}",
		Summary:     "Get a player by id or slug",
		Tags:        []string{"Players"},
	}, r.get)

	huma.Register(api, huma.Operation{
		OperationID: "players-aliases",
		Method:      "GET",
		Path:        basePath + "/{player_id}/aliases",
		Summary:     "List the aliases of a player",
		Tags:        []string{"Players"},
	}, r.aliases)

	huma.Register(api, huma.Operation{
		OperationID: "players-games",
		Method:      "GET",
		Path:        basePath + "/{player_id}/games",
		Summary:     "List the games of a player",
		Tags:        []string{"Players"},
	}, r.games)

	huma.Register(api, huma.Operation{
		OperationID: "players-common-games",
		Method:      "GET",
		Path:        basePath + "/{player_id}/common-games/{other_id}",
		Summary:     "List the games two players played together",
		Description: "Games where either player only moderated or spectated are left out.",
		Tags:        []string{"Players"},
	}, r.commonGames)

	huma.Register(api, huma.Operation{
		OperationID: "players-delete-alias",
		Method:      "DELETE",
		Path:        basePath + "/aliases/{alias_id}",
		Summary:     "Delete an alias",
		Description: "Allowed for admins and for the player the alias points to.",
		Tags:        []string{"Players"},
	}, r.deleteAlias)

	huma.Register(api, huma.Operation{
		OperationID: "players-merge",
		Method:      "POST",
		Path:        basePath + "/{player_id}/merge",
		Summary:     "Merge a player into another",
		Description: "Repoints games, status rows, aliases, posts and votes, then deletes the merged player.",
		Tags:        []string{"Players"},
	}, r.merge)
}

func (r *Routes) list(ctx context.Context, input *dto.ListPlayersInput) (*dto.ListPlayersOutput, error) {
	players, total, err := r.service.List(ctx, input.Search, input.Page, input.Limit)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list players")
	}
	return &dto.ListPlayersOutput{Body: dto.PlayerListResponse{
		Players: players,
		Total:   total,
		Page:    input.Page,
		Limit:   input.Limit,
	}}, nil
}

func (r *Routes) create(ctx context.Context, input *dto.CreatePlayerInput) (*dto.PlayerOutput, error) {
	if _, err := r.auth.RequireAdmin(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	player, err := r.service.Create(ctx, input.Body.Name, input.Body.ForumUserID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to create player")
	}
	return &dto.PlayerOutput{Body: *player}, nil
}

func (r *Routes) get(ctx context.Context, input *dto.GetPlayerInput) (*dto.PlayerOutput, error) {
	player, err := r.service.GetByIDOrSlug(ctx, input.PlayerID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load player")
	}
	return &dto.PlayerOutput{Body: *player}, nil
}

func (r *Routes) aliases(ctx context.Context, input *dto.ListAliasesInput) (*dto.ListAliasesOutput, error) {
	player, err := r.service.GetByIDOrSlug(ctx, input.PlayerID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load player")
	}
	aliases, err := r.service.ListAliases(ctx, player.ID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list aliases")
	}
	return &dto.ListAliasesOutput{Body: dto.AliasListResponse{PlayerID: player.ID, Aliases: aliases}}, nil
}

func (r *Routes) games(ctx context.Context, input *dto.PlayerGamesInput) (*dto.PlayerGamesOutput, error) {
	player, err := r.service.GetByIDOrSlug(ctx, input.PlayerID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load player")
	}
	games, err := r.service.Games(ctx, player.ID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list games")
	}
	return &dto.PlayerGamesOutput{Body: dto.PlayerGamesResponse{PlayerID: player.ID, Games: games}}, nil
}

func (r *Routes) commonGames(ctx context.Context, input *dto.CommonGamesInput) (*dto.CommonGamesOutput, error) {
	player, err := r.service.GetByIDOrSlug(ctx, input.PlayerID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load player")
	}
	other, err := r.service.GetByIDOrSlug(ctx, input.OtherID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load player")
	}
	games, err := r.service.CommonGames(ctx, player.ID, other.ID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list common games")
	}
	return &dto.CommonGamesOutput{Body: dto.CommonGamesResponse{PlayerID: player.ID, OtherID: other.ID, Games: games}}, nil
}

func (r *Routes) deleteAlias(ctx context.Context, input *dto.DeleteAliasInput) (*dto.DeleteAliasOutput, error) {
	caller, err := r.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	err = r.service.DeleteAlias(ctx, input.AliasID, caller.PlayerID, r.auth.IsAdmin(caller))
	if errors.Is(err, services.ErrForbidden) {
		return nil, huma.Error403Forbidden("Only an admin or the alias owner may delete it")
	}
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to delete alias")
	}
	return &dto.DeleteAliasOutput{Body: dto.MessageResponse{Message: "Alias deleted"}}, nil
}

func (r *Routes) merge(ctx context.Context, input *dto.MergePlayerInput) (*dto.MergePlayerOutput, error) {
	if _, err := r.auth.RequireAdmin(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	moved, err := r.service.Merge(ctx, input.PlayerID, input.Body.IntoPlayerID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to merge players")
	}
	into, err := r.service.Get(ctx, input.Body.IntoPlayerID)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to load merged player")
	}
	return &dto.MergePlayerOutput{Body: dto.MergeResponse{Into: *into, Moved: *moved, Merged: input.PlayerID}}, nil
}
