package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantErr bool
	}{
		{"valid create", &CreateGameRequest{Name: "Mafia", ThreadID: "123", ModeratorID: "p1", Timezone: "Europe/London"}, false},
		{"create without timezone", &CreateGameRequest{Name: "Mafia", ThreadID: "123", ModeratorID: "p1"}, false},
		{"create bad timezone", &CreateGameRequest{Name: "Mafia", ThreadID: "123", ModeratorID: "p1", Timezone: "Mars/Olympus"}, true},
		{"create missing thread", &CreateGameRequest{Name: "Mafia", ModeratorID: "p1"}, true},
		{"create bad url", &CreateGameRequest{Name: "Mafia", ThreadID: "1", ModeratorID: "p1", URL: "not a url"}, true},
		{"status dead", &SetPlayerStatusRequest{Status: "dead"}, false},
		{"status unknown", &SetPlayerStatusRequest{Status: "zombie"}, true},
		{"update timezone", &UpdateGameRequest{Timezone: ptr("America/New_York")}, false},
		{"update bad timezone", &UpdateGameRequest{Timezone: ptr("Nowhere")}, true},
		{"day zero", &StartDayRequest{Day: 0}, true},
		{"day two", &StartDayRequest{Day: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
