package dto

import (
	"github.com/LoganMeitz/votefinder/internal/players/models"
	"github.com/LoganMeitz/votefinder/internal/players/services"
)

type PlayerListResponse struct {
	Players []models.Player `json:"players"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

type ListPlayersOutput struct {
	Body PlayerListResponse
}

type PlayerOutput struct {
	Body models.Player
}

type AliasListResponse struct {
	PlayerID string         `json:"player_id"`
	Aliases  []models.Alias `json:"aliases"`
}

type ListAliasesOutput struct {
	Body AliasListResponse
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DeleteAliasOutput struct {
	Body MessageResponse
}

type MergeResponse struct {
	Into   models.Player        `json:"into"`
	Moved  services.MergeResult `json:"moved"`
	Merged string               `json:"merged_player_id"`
}

type MergePlayerOutput struct {
	Body MergeResponse
}

type PlayerGamesResponse struct {
	PlayerID string               `json:"player_id"`
	Games    []services.GameEntry `json:"games"`
}

type PlayerGamesOutput struct {
	Body PlayerGamesResponse
}

type CommonGamesResponse struct {
	PlayerID string               `json:"player_id"`
	OtherID  string               `json:"other_id"`
	Games    []services.GameEntry `json:"games"`
}

type CommonGamesOutput struct {
	Body CommonGamesResponse
}
