package tally

import "strings"

// Resolver maps raw vote text to a participant of one game.
type Resolver struct {
	aliases map[string][]ParticipantID
	names   map[string][]ParticipantID
}

// NewResolver indexes the aliases and display names that apply to the given roster.
// Aliases pointing at participants outside the roster are dropped.
func NewResolver(aliases []Alias, roster []RosterEntry) *Resolver {
	members := make(map[ParticipantID]Status, len(roster))
	r := &Resolver{
		aliases: make(map[string][]ParticipantID),
		names:   make(map[string][]ParticipantID),
	}

	for _, entry := range roster {
		members[entry.ID] = entry.Status
		if entry.Status == StatusModerator {
			continue
		}
		key := normalize(entry.Name)
		if key != "" {
			r.names[key] = appendUnique(r.names[key], entry.ID)
		}
	}

	for _, alias := range aliases {
		if _, ok := members[alias.Participant]; !ok {
			continue
		}
		key := normalize(alias.Text)
		if key != "" {
			r.aliases[key] = appendUnique(r.aliases[key], alias.Participant)
		}
	}

	return r
}

// Resolve returns the participant named by raw. Text that matches nothing, or matches
// several participants at the same step, is left unresolved.
func (r *Resolver) Resolve(raw string) (ParticipantID, bool) {
	key := normalize(raw)
	if key == "" {
		return "", false
	}
	if ids := r.aliases[key]; len(ids) > 0 {
		if len(ids) == 1 {
			return ids[0], true
		}
		return "", false
	}
	if ids := r.names[key]; len(ids) == 1 {
		return ids[0], true
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func appendUnique(ids []ParticipantID, id ParticipantID) []ParticipantID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
