package tally

import (
	"slices"
	"strings"
	"time"
)

// CurrentVote is a participant's live vote. The zero value means not voting.
type CurrentVote struct {
	Declaration DeclarationID `json:"declaration,omitempty"`
	Target      ParticipantID `json:"target,omitempty"`
	NoExecute   bool          `json:"no_execute,omitempty"`
}

// None reports whether the participant has no live vote.
func (v CurrentVote) None() bool {
	return v.Declaration == ""
}

// DeclarationStatus is the per-declaration outcome of a Run.
type DeclarationStatus struct {
	InScope      bool
	Enabled      bool
	Counting     bool
	Pending      bool
	Target       ParticipantID
	SupersededBy DeclarationID
}

// Vote is one declaration listed under a target.
type Vote struct {
	Declaration DeclarationID
	Author      ParticipantID
	Order       OrderKey
	Timestamp   time.Time
	URL         string
	Enabled     bool
	Counting    bool
	Unvoted     bool // superseded by an explicit unvote
}

// TargetTally groups the votes cast at one target during the current day.
// NoExecute groups no-execute votes that name nobody.
type TargetTally struct {
	Target     ParticipantID
	NoExecute  bool
	Count      int
	Votes      []Vote
	Superseded []Vote
}

// LogEntry is one declaration in the chronological vote log.
type LogEntry struct {
	Declaration DeclarationID
	Author      ParticipantID
	Target      ParticipantID
	RawTarget   string
	Unvote      bool
	Manual      bool
	Disposition Disposition
	Order       OrderKey
	Timestamp   time.Time
	InScope     bool
}

// PendingDeclaration is an in-scope declaration that still needs a moderator decision.
type PendingDeclaration struct {
	Declaration DeclarationID
	Author      ParticipantID
	RawTarget   string
	Order       OrderKey
	Timestamp   time.Time
	URL         string
}

// Result is the full output of Run.
type Result struct {
	Day         int
	Alive       int
	ToExecute   int
	CurrentVote map[ParticipantID]CurrentVote
	Statuses    map[DeclarationID]DeclarationStatus
	Aggregate   []TargetTally
	NotVoting   []ParticipantID
	Pending     []PendingDeclaration
	VoteLog     []LogEntry
	Names       map[ParticipantID]string
}

// Name returns the display name of a participant referenced by the result.
func (r *Result) Name(id ParticipantID) string {
	if name, ok := r.Names[id]; ok {
		return name
	}
	return string(id)
}

// ExecutionThreshold is the number of counting votes needed to execute a player.
func ExecutionThreshold(alive int) int {
	if alive < 0 {
		alive = 0
	}
	return alive/2 + 1
}

// Run computes the tally for the snapshot's current day.
func Run(s Snapshot) (*Result, error) {
	if s.Day == nil {
		return nil, ErrMissingDayBoundary
	}

	resolver := NewResolver(s.Aliases, s.Roster)
	ordered := sortedDeclarations(s.Declarations)

	res := &Result{
		Day:         s.Day.Number,
		CurrentVote: make(map[ParticipantID]CurrentVote),
		Statuses:    make(map[DeclarationID]DeclarationStatus, len(ordered)),
		Names:       make(map[ParticipantID]string),
		VoteLog:     make([]LogEntry, 0, len(ordered)),
	}

	for id, name := range s.Names {
		res.Names[id] = name
	}
	for _, entry := range s.Roster {
		res.Names[entry.ID] = entry.Name
		if entry.Status == StatusModerator {
			continue
		}
		res.CurrentVote[entry.ID] = CurrentVote{}
		if entry.Status == StatusAlive {
			res.Alive++
		}
	}
	res.ToExecute = ExecutionThreshold(res.Alive)

	// Transient resolution; nothing is written back to the ledger.
	targets := make(map[DeclarationID]ParticipantID, len(ordered))
	for _, d := range ordered {
		target := d.Target
		if !d.Unvote && target == "" && d.Disposition == DispositionPending {
			target, _ = resolver.Resolve(d.RawTarget)
		}
		if d.Unvote {
			target = ""
		}
		targets[d.ID] = target

		inScope := d.Order.PostSequence >= s.Day.StartPost
		res.Statuses[d.ID] = DeclarationStatus{InScope: inScope, Target: target}
		res.VoteLog = append(res.VoteLog, LogEntry{
			Declaration: d.ID,
			Author:      d.Author,
			Target:      target,
			RawTarget:   d.RawTarget,
			Unvote:      d.Unvote,
			Manual:      d.Manual,
			Disposition: d.Disposition,
			Order:       d.Order,
			Timestamp:   d.Timestamp,
			InScope:     inScope,
		})
	}

	f := newFold(s.Anonymous)
	var scoped []Declaration
	for _, d := range ordered {
		if !res.Statuses[d.ID].InScope {
			continue
		}
		scoped = append(scoped, d)

		switch {
		case d.Disposition == DispositionIgnored:
			continue
		case d.Unvote:
			f.unvote(d)
		case targets[d.ID] == "" && d.Disposition != DispositionNoExecute:
			f.hold(d)
			res.Pending = append(res.Pending, PendingDeclaration{
				Declaration: d.ID,
				Author:      d.Author,
				RawTarget:   d.RawTarget,
				Order:       d.Order,
				Timestamp:   d.Timestamp,
				URL:         d.URL,
			})
			st := res.Statuses[d.ID]
			st.Pending = true
			res.Statuses[d.ID] = st
		default:
			f.vote(d)
		}
	}

	for id, by := range f.superseded {
		st := res.Statuses[id]
		st.SupersededBy = by
		res.Statuses[id] = st
	}

	live := f.liveSet()
	for _, d := range scoped {
		if !live[d.ID] {
			continue
		}
		st := res.Statuses[d.ID]
		st.Enabled = true
		st.Counting = d.Disposition != DispositionNoExecute && targets[d.ID] != ""
		res.Statuses[d.ID] = st
	}

	for author, d := range f.live {
		if author == s.Anonymous && s.Anonymous != "" {
			continue
		}
		if d == nil {
			res.CurrentVote[author] = CurrentVote{}
			continue
		}
		res.CurrentVote[author] = CurrentVote{
			Declaration: d.ID,
			Target:      targets[d.ID],
			NoExecute:   d.Disposition == DispositionNoExecute,
		}
	}
	if s.Anonymous != "" {
		delete(res.CurrentVote, s.Anonymous)
	}

	res.Aggregate = aggregate(scoped, targets, res.Statuses)
	res.NotVoting = notVoting(s.Roster, res.CurrentVote, f.outstanding)

	return res, nil
}

func sortedDeclarations(in []Declaration) []Declaration {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b Declaration) int {
		if c := a.Order.Compare(b.Order); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// fold tracks one live declaration per author while walking the ledger in order.
type fold struct {
	anonymous   ParticipantID
	live        map[ParticipantID]*Declaration
	last        map[ParticipantID]DeclarationID
	anonLive    []DeclarationID
	superseded  map[DeclarationID]DeclarationID
	outstanding map[ParticipantID]bool
}

func newFold(anonymous ParticipantID) *fold {
	return &fold{
		anonymous:   anonymous,
		live:        make(map[ParticipantID]*Declaration),
		last:        make(map[ParticipantID]DeclarationID),
		superseded:  make(map[DeclarationID]DeclarationID),
		outstanding: make(map[ParticipantID]bool),
	}
}

func (f *fold) isAnonymous(author ParticipantID) bool {
	return f.anonymous != "" && author == f.anonymous
}

func (f *fold) supersedePrevious(d Declaration) {
	if prev, ok := f.last[d.Author]; ok {
		f.superseded[prev] = d.ID
	}
	f.last[d.Author] = d.ID
	f.outstanding[d.Author] = false
}

func (f *fold) unvote(d Declaration) {
	if f.isAnonymous(d.Author) {
		for _, id := range f.anonLive {
			f.superseded[id] = d.ID
		}
		f.anonLive = nil
		return
	}
	f.supersedePrevious(d)
	f.live[d.Author] = nil
}

func (f *fold) vote(d Declaration) {
	if f.isAnonymous(d.Author) {
		f.anonLive = append(f.anonLive, d.ID)
		return
	}
	f.supersedePrevious(d)
	decl := d
	f.live[d.Author] = &decl
}

func (f *fold) hold(d Declaration) {
	if f.isAnonymous(d.Author) {
		return
	}
	f.outstanding[d.Author] = true
}

func (f *fold) liveSet() map[DeclarationID]bool {
	set := make(map[DeclarationID]bool, len(f.live)+len(f.anonLive))
	for _, d := range f.live {
		if d != nil {
			set[d.ID] = true
		}
	}
	for _, id := range f.anonLive {
		set[id] = true
	}
	return set
}

func aggregate(scoped []Declaration, targets map[DeclarationID]ParticipantID, statuses map[DeclarationID]DeclarationStatus) []TargetTally {
	var out []TargetTally
	index := make(map[ParticipantID]int)
	noExecute := -1

	unvotes := make(map[DeclarationID]bool)
	for _, d := range scoped {
		if d.Unvote {
			unvotes[d.ID] = true
		}
	}

	for _, d := range scoped {
		st := statuses[d.ID]
		if d.Disposition == DispositionIgnored || d.Unvote || st.Pending {
			continue
		}

		target := targets[d.ID]
		var pos int
		if target == "" {
			if noExecute < 0 {
				noExecute = len(out)
				out = append(out, TargetTally{NoExecute: true})
			}
			pos = noExecute
		} else {
			i, ok := index[target]
			if !ok {
				i = len(out)
				index[target] = i
				out = append(out, TargetTally{Target: target})
			}
			pos = i
		}

		v := Vote{
			Declaration: d.ID,
			Author:      d.Author,
			Order:       d.Order,
			Timestamp:   d.Timestamp,
			URL:         d.URL,
			Enabled:     st.Enabled,
			Counting:    st.Counting,
		}
		if st.Enabled {
			out[pos].Votes = append(out[pos].Votes, v)
			if st.Counting {
				out[pos].Count++
			}
			continue
		}
		v.Unvoted = unvotes[st.SupersededBy]
		out[pos].Superseded = append(out[pos].Superseded, v)
	}

	slices.SortStableFunc(out, func(a, b TargetTally) int {
		return b.Count - a.Count
	})
	return out
}

func notVoting(roster []RosterEntry, current map[ParticipantID]CurrentVote, outstanding map[ParticipantID]bool) []ParticipantID {
	var entries []RosterEntry
	for _, entry := range roster {
		if entry.Status != StatusAlive {
			continue
		}
		if !current[entry.ID].None() || outstanding[entry.ID] {
			continue
		}
		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(a, b RosterEntry) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})

	ids := make([]ParticipantID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	return ids
}
