package dto

import (
	"testing"

	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		req     ResolveRequest
		want    tally.Decision
		wantErr bool
	}{
		{"assign", ResolveRequest{Decision: "assign", PlayerID: "p1"}, tally.Assign{Participant: "p1"}, false},
		{"assign without player", ResolveRequest{Decision: "assign"}, nil, true},
		{"ignore", ResolveRequest{Decision: "ignore"}, tally.Ignore{}, false},
		{"no execute", ResolveRequest{Decision: "no_execute"}, tally.NoExecute{}, false},
		{"unknown", ResolveRequest{Decision: "lynch"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, tally.ErrConflict)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantErr bool
	}{
		{"resolve assign", &ResolveRequest{Decision: "assign", PlayerID: "p1"}, false},
		{"resolve assign without player", &ResolveRequest{Decision: "assign"}, true},
		{"resolve ignore", &ResolveRequest{Decision: "ignore"}, false},
		{"resolve unknown", &ResolveRequest{Decision: "maybe"}, true},
		{"manual vote", &ManualVoteRequest{TargetID: "p1"}, false},
		{"manual unvote", &ManualVoteRequest{Unvote: true}, false},
		{"manual vote without target", &ManualVoteRequest{}, true},
		{"replace", &ReplaceRequest{OutgoingID: "p1", IncomingName: "Dave"}, false},
		{"replace without name", &ReplaceRequest{OutgoingID: "p1"}, true},
		{"ingest empty", &IngestRequest{}, true},
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
