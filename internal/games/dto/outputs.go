package dto

import (
	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/internal/games/services"
)

// GameResponse is a game with its current day, when one is open.
type GameResponse struct {
	models.Game
	CurrentDay *models.GameDay `json:"current_day,omitempty"`
}

type GameOutput struct {
	Body GameResponse
}

type GameListResponse struct {
	Games []models.Game `json:"games"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type ListGamesOutput struct {
	Body GameListResponse
}

type PostListResponse struct {
	Posts []models.Post `json:"posts"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

type ListPostsOutput struct {
	Body PostListResponse
}

type DayOutput struct {
	Body models.GameDay
}

type RosterResponse struct {
	Players []services.RosterMember `json:"players"`
	Alive   int                     `json:"alive"`
}

type RosterOutput struct {
	Body RosterResponse
}

type RosterMemberOutput struct {
	Body services.RosterMember
}

type PruneResponse struct {
	Removed int64 `json:"removed"`
}

type PruneSpectatorsOutput struct {
	Body PruneResponse
}

type UpdatesResponse struct {
	Updates []models.StatusUpdate `json:"updates"`
}

type UpdatesOutput struct {
	Body UpdatesResponse
}

type FactionListResponse struct {
	Factions []models.Faction `json:"factions"`
}

type FactionListOutput struct {
	Body FactionListResponse
}

type FactionResponse struct {
	models.Faction
	Created bool `json:"created"`
}

type FactionOutput struct {
	Body FactionResponse
}
