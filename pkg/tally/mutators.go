package tally

import (
	"fmt"
	"strings"
)

// Decision is a moderator's answer for an unresolved declaration.
// It is one of Assign, Ignore or NoExecute.
type Decision interface {
	outcome() (Disposition, ParticipantID)
}

// Assign resolves the declaration to a participant and records an alias for its text.
type Assign struct {
	Participant ParticipantID
}

// Ignore removes the declaration from the tally while keeping it in the log.
type Ignore struct{}

// NoExecute turns the declaration into a non-counting vote.
type NoExecute struct{}

func (a Assign) outcome() (Disposition, ParticipantID) { return DispositionResolved, a.Participant }
func (Ignore) outcome() (Disposition, ParticipantID)    { return DispositionIgnored, "" }
func (NoExecute) outcome() (Disposition, ParticipantID) { return DispositionNoExecute, "" }

// ResolutionPlan lists the ledger writes for one resolution. All of it is applied or none.
type ResolutionPlan struct {
	Declarations []DeclarationID
	Disposition  Disposition
	Target       ParticipantID
	Alias        *Alias
}

// PlanResolution applies a decision to a declaration and to every other pending
// declaration of the same game that carries the same text.
func PlanResolution(target Declaration, ledger []Declaration, d Decision) (ResolutionPlan, error) {
	if d == nil {
		return ResolutionPlan{}, fmt.Errorf("%w: no decision given", ErrConflict)
	}
	disposition, participant := d.outcome()
	if disposition == DispositionResolved && participant == "" {
		return ResolutionPlan{}, fmt.Errorf("%w: assign needs a participant", ErrConflict)
	}
	if target.Unvote {
		return ResolutionPlan{}, fmt.Errorf("%w: declaration %s is an unvote", ErrConflict, target.ID)
	}

	plan := ResolutionPlan{Disposition: disposition, Target: participant}
	text := normalize(target.RawTarget)
	if disposition == DispositionResolved && text != "" && !target.Manual {
		plan.Alias = &Alias{Participant: participant, Text: strings.TrimSpace(target.RawTarget)}
	}

	if target.Disposition.Terminal() {
		if target.Disposition == disposition && target.Target == participant {
			return plan, nil
		}
		return ResolutionPlan{}, fmt.Errorf("%w: declaration %s is already %s", ErrConflict, target.ID, target.Disposition)
	}

	plan.Declarations = append(plan.Declarations, target.ID)
	if text == "" {
		return plan, nil
	}
	for _, other := range ledger {
		if other.ID == target.ID || other.Unvote || other.Disposition != DispositionPending {
			continue
		}
		if normalize(other.RawTarget) == text {
			plan.Declarations = append(plan.Declarations, other.ID)
		}
	}
	return plan, nil
}

// Rewrite re-points one declaration at the incoming participant. Resolved marks a pending
// declaration whose text resolved to the outgoing participant; it is written as resolved
// with the incoming participant as its target.
type Rewrite struct {
	Declaration DeclarationID
	Author      bool
	Target      bool
	Resolved    bool
}

// ReplacementPlan lists the ledger and roster writes for one participant replacement.
type ReplacementPlan struct {
	Outgoing                ParticipantID
	Incoming                ParticipantID
	DeleteIncomingSpectator bool
	Delete                  []DeclarationID
	Rewrites                []Rewrite
	Affected                int
}

// PlanReplacement replaces outgoing with incoming across the game's roster and ledger.
// Pending declarations count as targeting outgoing when their text resolves to it
// through the aliases and the roster as they stand before the replacement.
func PlanReplacement(ledger []Declaration, roster []RosterEntry, aliases []Alias, outgoing, incoming ParticipantID, clearVotes bool) (ReplacementPlan, error) {
	if outgoing == "" || incoming == "" {
		return ReplacementPlan{}, fmt.Errorf("%w: replacement needs both participants", ErrNotFound)
	}
	if outgoing == incoming {
		return ReplacementPlan{}, fmt.Errorf("%w: participant %s cannot replace themselves", ErrConflict, outgoing)
	}

	plan := ReplacementPlan{Outgoing: outgoing, Incoming: incoming}
	found := false
	for _, entry := range roster {
		switch entry.ID {
		case outgoing:
			found = true
		case incoming:
			if entry.Status != StatusSpectator {
				return ReplacementPlan{}, fmt.Errorf("%w: participant %s is already in the game", ErrConflict, incoming)
			}
			plan.DeleteIncomingSpectator = true
		}
	}
	if !found {
		return ReplacementPlan{}, fmt.Errorf("%w: participant %s is not in the game", ErrNotFound, outgoing)
	}

	resolver := NewResolver(aliases, roster)
	for _, d := range ledger {
		authored := d.Author == outgoing
		targeted := d.Target == outgoing
		resolved := false
		if !d.Unvote && d.Target == "" && d.Disposition == DispositionPending {
			if id, ok := resolver.Resolve(d.RawTarget); ok && id == outgoing {
				targeted, resolved = true, true
			}
		}
		if !authored && !targeted {
			continue
		}
		plan.Affected++
		if clearVotes {
			plan.Delete = append(plan.Delete, d.ID)
			continue
		}
		plan.Rewrites = append(plan.Rewrites, Rewrite{Declaration: d.ID, Author: authored, Target: targeted, Resolved: resolved})
	}
	return plan, nil
}
