package dto

// IssueTokenInput asks for a bearer token on behalf of a player.
type IssueTokenInput struct {
	AdminKey string `header:"X-Admin-Key" required:"true" description:"Operator key configured as ADMIN_API_KEY"`
	Body     struct {
		PlayerID string `json:"player_id" minLength:"1" required:"true" description:"Player the token is issued to"`
	}
}

// AuthStatusInput carries the optional caller credentials.
type AuthStatusInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing votefinder_token"`
}
