package tally

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes every input that can change the output of Run. Two snapshots with the
// same fingerprint produce the same result, regardless of the order their slices were loaded in.
func (s Snapshot) Fingerprint() string {
	h := xxhash.New()
	field := func(parts ...string) {
		for _, p := range parts {
			h.WriteString(p)
			h.WriteString("\x1f")
		}
		h.WriteString("\x1e")
	}

	if s.Day != nil {
		field("day", strconv.Itoa(s.Day.Number), strconv.FormatInt(s.Day.StartPost, 10))
	} else {
		field("day", "none")
	}
	field("anon", string(s.Anonymous))

	roster := slices.Clone(s.Roster)
	slices.SortFunc(roster, func(a, b RosterEntry) int { return strings.Compare(string(a.ID), string(b.ID)) })
	for _, e := range roster {
		field("r", string(e.ID), e.Name, string(e.Status))
	}

	decls := slices.Clone(s.Declarations)
	slices.SortFunc(decls, func(a, b Declaration) int { return strings.Compare(string(a.ID), string(b.ID)) })
	for _, d := range decls {
		field("d", string(d.ID), string(d.Author), d.RawTarget, string(d.Target),
			strconv.FormatBool(d.Unvote), strconv.FormatBool(d.Manual), string(d.Disposition),
			strconv.FormatInt(d.Order.PostSequence, 10), strconv.Itoa(d.Order.Index),
			d.Timestamp.UTC().Format(time.RFC3339Nano), d.URL)
	}

	aliases := slices.Clone(s.Aliases)
	slices.SortFunc(aliases, func(a, b Alias) int {
		if c := strings.Compare(string(a.Participant), string(b.Participant)); c != 0 {
			return c
		}
		return strings.Compare(a.Text, b.Text)
	})
	for _, a := range aliases {
		field("a", string(a.Participant), a.Text)
	}

	ids := make([]string, 0, len(s.Names))
	for id := range s.Names {
		ids = append(ids, string(id))
	}
	slices.Sort(ids)
	for _, id := range ids {
		field("n", id, s.Names[ParticipantID(id)])
	}

	return strconv.FormatUint(h.Sum64(), 16)
}
