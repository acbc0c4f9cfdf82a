package dto

import (
	"fmt"

	"github.com/LoganMeitz/votefinder/pkg/tally"
)

// Decision is the wire name of a moderator decision.
type Decision string

const (
	DecisionAssign    Decision = "assign"
	DecisionIgnore    Decision = "ignore"
	DecisionNoExecute Decision = "no_execute"
)

// ParseDecision turns the request body into the engine's decision value.
func ParseDecision(r ResolveRequest) (tally.Decision, error) {
	switch Decision(r.Decision) {
	case DecisionAssign:
		if r.PlayerID == "" {
			return nil, fmt.Errorf("assign needs a player_id: %w", tally.ErrConflict)
		}
		return tally.Assign{Participant: tally.ParticipantID(r.PlayerID)}, nil
	case DecisionIgnore:
		return tally.Ignore{}, nil
	case DecisionNoExecute:
		return tally.NoExecute{}, nil
	}
	return nil, fmt.Errorf("unknown decision %q: %w", r.Decision, tally.ErrConflict)
}
