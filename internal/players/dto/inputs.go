package dto

// ListPlayersInput pages through known players.
type ListPlayersInput struct {
	Search string `query:"search" maxLength:"100" description:"Case-insensitive name fragment"`
	Page   int    `query:"page" minimum:"1" default:"1" description:"Page number"`
	Limit  int    `query:"limit" minimum:"1" maximum:"200" default:"50" description:"Items per page"`
}

type CreatePlayerInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing votefinder_token"`
	Body          struct {
		Name        string `json:"name" minLength:"1" maxLength:"100" required:"true" description:"Forum display name"`
		ForumUserID string `json:"forum_user_id,omitempty" maxLength:"50" description:"Forum user id, when known"`
	}
}

type GetPlayerInput struct {
	PlayerID string `path:"player_id" description:"Player id or slug"`
}

type ListAliasesInput struct {
	PlayerID string `path:"player_id" description:"Player id or slug"`
}

type DeleteAliasInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing votefinder_token"`
	AliasID       string `path:"alias_id" description:"Alias id"`
}

// MergePlayerInput folds the path player into another one.
type MergePlayerInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing votefinder_token"`
	PlayerID      string `path:"player_id" description:"Player to merge away"`
	Body          struct {
		IntoPlayerID string `json:"into_player_id" minLength:"1" required:"true" description:"Player that absorbs the merged one"`
	}
}

type PlayerGamesInput struct {
	PlayerID string `path:"player_id" description:"Player id or slug"`
}

type CommonGamesInput struct {
	PlayerID string `path:"player_id" description:"Player id or slug"`
	OtherID  string `path:"other_id" description:"Id or slug of the other player"`
}
