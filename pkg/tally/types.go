// Package tally reconstructs the live votes of a forum mafia game from its vote ledger.
//
// Everything in this package is a pure function of its inputs. Callers load a Snapshot from
// persistence, call Run, and project the Result for display. No state survives between calls.
package tally

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a referenced game, participant, declaration or day does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a mutation precondition fails.
	ErrConflict = errors.New("conflict")
	// ErrMissingDayBoundary is returned by Run for a game that has no recorded day start.
	ErrMissingDayBoundary = errors.New("game has no day boundary")
)

// ParticipantID identifies a participant across games.
type ParticipantID string

// DeclarationID identifies a single vote declaration.
type DeclarationID string

// Status is a participant's standing inside one game.
type Status string

const (
	StatusAlive     Status = "alive"
	StatusDead      Status = "dead"
	StatusSpectator Status = "spectator"
	StatusModerator Status = "moderator"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAlive, StatusDead, StatusSpectator, StatusModerator:
		return true
	}
	return false
}

// Disposition is the moderator-settable state of a declaration.
type Disposition string

const (
	DispositionPending   Disposition = "pending"
	DispositionResolved  Disposition = "resolved"
	DispositionIgnored   Disposition = "ignored"
	DispositionNoExecute Disposition = "no_execute"
)

// Terminal reports whether the disposition can no longer change.
func (d Disposition) Terminal() bool {
	return d != DispositionPending
}

// OrderKey totally orders declarations inside a game: post sequence first, then the
// position of the declaration inside that post.
type OrderKey struct {
	PostSequence int64 `json:"post_sequence" bson:"post_sequence"`
	Index        int   `json:"index" bson:"index"`
}

// Compare returns -1, 0 or 1.
func (k OrderKey) Compare(other OrderKey) int {
	switch {
	case k.PostSequence < other.PostSequence:
		return -1
	case k.PostSequence > other.PostSequence:
		return 1
	case k.Index < other.Index:
		return -1
	case k.Index > other.Index:
		return 1
	}
	return 0
}

// Participant is a person who can vote or be voted for.
type Participant struct {
	ID   ParticipantID
	Name string
}

// RosterEntry is one participant's status in the game being evaluated.
type RosterEntry struct {
	Participant
	Status Status
}

// Alias maps a raw spelling to a participant.
type Alias struct {
	Participant ParticipantID
	Text        string
}

// Declaration is one vote ledger entry.
type Declaration struct {
	ID          DeclarationID
	Author      ParticipantID
	RawTarget   string
	Target      ParticipantID // empty while unresolved
	Unvote      bool
	Manual      bool
	Disposition Disposition
	Order       OrderKey
	Timestamp   time.Time
	URL         string
}

// Resolved reports whether the declaration already carries a target.
func (d Declaration) Resolved() bool {
	return d.Target != ""
}

// Day is the current game day and the sequence of the post that opened it.
type Day struct {
	Number    int
	StartPost int64
}

// Snapshot is the read-only input of one Run.
type Snapshot struct {
	Roster       []RosterEntry
	Declarations []Declaration
	Aliases      []Alias
	Day          *Day

	// Names holds display names for participants referenced by the ledger
	// that are not on the roster.
	Names map[ParticipantID]string

	// Anonymous is the participant used for moderator votes without an author.
	// Its declarations never supersede each other.
	Anonymous ParticipantID
}

