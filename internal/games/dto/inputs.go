package dto

// AuthHeaders carries the caller credentials.
type AuthHeaders struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing votefinder_token"`
}

// CreateGameRequest is the body of a game creation.
type CreateGameRequest struct {
	Name        string `json:"name" minLength:"1" maxLength:"200" required:"true" validate:"required,max=200" description:"Game title"`
	ThreadID    string `json:"thread_id" minLength:"1" required:"true" validate:"required" description:"Forum thread id"`
	URL         string `json:"url,omitempty" validate:"omitempty,url" description:"Forum thread URL"`
	ModeratorID string `json:"moderator_id" minLength:"1" required:"true" validate:"required" description:"Player moderating the game"`
	Timezone    string `json:"timezone,omitempty" validate:"timezone" description:"IANA timezone used for deadlines" default:"UTC"`
}

type CreateGameInput struct {
	AuthHeaders
	Body CreateGameRequest
}

type ListGamesInput struct {
	State string `query:"state" description:"Filter by state: pregame, started or closed"`
	Page  int    `query:"page" minimum:"1" default:"1" description:"Page number"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" default:"20" description:"Items per page"`
}

type GameSlugInput struct {
	Slug string `path:"slug" description:"Game slug"`
}

// UpdateGameRequest only touches the fields that are present.
type UpdateGameRequest struct {
	Name           *string `json:"name,omitempty" maxLength:"200" validate:"omitempty,min=1,max=200" description:"Game title"`
	URL            *string `json:"url,omitempty" validate:"omitempty,url" description:"Forum thread URL"`
	Timezone       *string `json:"timezone,omitempty" validate:"omitempty,timezone" description:"IANA timezone used for deadlines"`
	Comment        *string `json:"comment,omitempty" maxLength:"1000" validate:"omitempty,max=1000" description:"Moderator comment shown with the vote count; empty clears it"`
	HideZeroVotes  *bool   `json:"hide_zero_votes,omitempty" description:"Hide targets with no counting votes"`
	PostExecutions *bool   `json:"post_executions,omitempty" description:"Whether executions are announced in the thread"`
	Deadline       *string `json:"deadline,omitempty" description:"RFC 3339 timestamp, or wall-clock 2006-01-02T15:04 in the game's timezone"`
	ClearDeadline  bool    `json:"clear_deadline,omitempty" description:"Remove the deadline"`
}

type UpdateGameInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body UpdateGameRequest
}

type StartGameInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body struct {
		StartDayOne bool `json:"start_day_one,omitempty" description:"Open day 1 at the latest post"`
	}
}

type CloseGameInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body struct {
		Winner         string `json:"winner,omitempty" maxLength:"100" description:"Winning side, announced when set"`
		WinningFaction string `json:"winning_faction,omitempty" description:"Id of the winning faction; takes precedence over winner"`
	}
}

type ReopenGameInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
}

type ListPostsInput struct {
	Slug string `path:"slug" description:"Game slug"`
	Page int    `query:"page" minimum:"0" default:"0" description:"Forum page; 0 lists every post"`
}

// StartDayRequest opens a day at a post, or at the latest post when post_id is empty.
type StartDayRequest struct {
	Day    int    `json:"day" minimum:"1" required:"true" validate:"required,min=1" description:"Day number"`
	PostID string `json:"post_id,omitempty" description:"Post opening the day; defaults to the latest post"`
}

type StartDayInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body StartDayRequest
}

type AddPlayerInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"100" required:"true" description:"Player name; created when unknown"`
	}
}

type SetPlayerStatusRequest struct {
	Status string `json:"status" enum:"alive,dead,spectator,moderator" required:"true" validate:"required,player_status" description:"New status"`
}

type SetPlayerStatusInput struct {
	AuthHeaders
	Slug     string `path:"slug" description:"Game slug"`
	PlayerID string `path:"player_id" description:"Player id"`
	Body     SetPlayerStatusRequest
}

type PruneSpectatorsInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
}

type GameUpdatesInput struct {
	Slug  string `path:"slug" description:"Game slug"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" default:"20" description:"Number of updates"`
}

type GlobalUpdatesInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"20" description:"Number of updates"`
}

type AddFactionRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"100" required:"true" validate:"required,max=100" description:"Faction name"`
	Kind string `json:"kind,omitempty" maxLength:"50" validate:"max=50" description:"Faction type, such as town, mafia or third party"`
}

type AddFactionInput struct {
	AuthHeaders
	Slug string `path:"slug" description:"Game slug"`
	Body AddFactionRequest
}

type DeleteFactionInput struct {
	AuthHeaders
	Slug      string `path:"slug" description:"Game slug"`
	FactionID string `path:"faction_id" description:"Faction id"`
}
