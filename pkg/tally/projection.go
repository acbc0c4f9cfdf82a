package tally

import "time"

// NoExecuteLabel is the line label used for no-execute votes that name nobody.
const NoExecuteLabel = "No Execute"

// ProjectionOptions tunes ProjectTally.
type ProjectionOptions struct {
	// HideZeroVotes drops lines that have no live votes left.
	HideZeroVotes bool
}

// VoteCount is the display shape of a tally.
type VoteCount struct {
	Day       int             `json:"day"`
	Alive     int             `json:"alive"`
	ToExecute int             `json:"to_execute"`
	Lines     []VoteCountLine `json:"lines"`
	NotVoting []string        `json:"not_voting"`
	Pending   []PendingLine   `json:"pending"`
}

// VoteCountLine is one target with the votes cast at it.
type VoteCountLine struct {
	TargetName    string          `json:"target_name"`
	NoExecute     bool            `json:"no_execute"`
	VotesReceived int             `json:"votes_received"`
	Votes         []VoteCountMark `json:"votes"`
}

// VoteCountMark is one voter under a line. Superseded votes are listed after live
// ones with Enabled false.
type VoteCountMark struct {
	Author   string `json:"author"`
	Enabled  bool   `json:"enabled"`
	Counting bool   `json:"counting"`
	Unvote   bool   `json:"unvote"`
	URL      string `json:"url,omitempty"`
}

// PendingLine is an unresolved declaration awaiting a moderator.
type PendingLine struct {
	Declaration DeclarationID `json:"declaration_id"`
	Author      string        `json:"author"`
	RawTarget   string        `json:"raw_target"`
}

// VoteLogLine is one entry of the vote chart.
type VoteLogLine struct {
	Voter     string    `json:"voter"`
	Target    string    `json:"target"`
	Unvote    bool      `json:"unvote"`
	Resolved  bool      `json:"resolved"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectTally converts a result into its display shape.
func ProjectTally(r *Result, opts ProjectionOptions) VoteCount {
	vc := VoteCount{
		Day:       r.Day,
		Alive:     r.Alive,
		ToExecute: r.ToExecute,
		Lines:     make([]VoteCountLine, 0, len(r.Aggregate)),
		NotVoting: make([]string, 0, len(r.NotVoting)),
		Pending:   make([]PendingLine, 0, len(r.Pending)),
	}

	for _, t := range r.Aggregate {
		if opts.HideZeroVotes && len(t.Votes) == 0 {
			continue
		}
		line := VoteCountLine{
			TargetName:    NoExecuteLabel,
			NoExecute:     t.NoExecute,
			VotesReceived: t.Count,
			Votes:         make([]VoteCountMark, 0, len(t.Votes)+len(t.Superseded)),
		}
		if !t.NoExecute {
			line.TargetName = r.Name(t.Target)
		}
		for _, v := range t.Votes {
			line.Votes = append(line.Votes, mark(r, v))
		}
		for _, v := range t.Superseded {
			line.Votes = append(line.Votes, mark(r, v))
		}
		vc.Lines = append(vc.Lines, line)
	}

	for _, id := range r.NotVoting {
		vc.NotVoting = append(vc.NotVoting, r.Name(id))
	}
	for _, p := range r.Pending {
		vc.Pending = append(vc.Pending, PendingLine{
			Declaration: p.Declaration,
			Author:      r.Name(p.Author),
			RawTarget:   p.RawTarget,
		})
	}
	return vc
}

func mark(r *Result, v Vote) VoteCountMark {
	return VoteCountMark{
		Author:   r.Name(v.Author),
		Enabled:  v.Enabled,
		Counting: v.Counting,
		Unvote:   v.Unvoted,
		URL:      v.URL,
	}
}

// ProjectVoteLog converts the vote log into chart entries. A non-empty voter keeps only
// that participant's declarations.
func ProjectVoteLog(r *Result, voter ParticipantID) []VoteLogLine {
	lines := make([]VoteLogLine, 0, len(r.VoteLog))
	for _, e := range r.VoteLog {
		if voter != "" && e.Author != voter {
			continue
		}
		line := VoteLogLine{
			Voter:     r.Name(e.Author),
			Unvote:    e.Unvote,
			Timestamp: e.Timestamp,
		}
		switch {
		case e.Unvote:
		case e.Target != "":
			line.Target = r.Name(e.Target)
			line.Resolved = true
		default:
			line.Target = e.RawTarget
		}
		lines = append(lines, line)
	}
	return lines
}
