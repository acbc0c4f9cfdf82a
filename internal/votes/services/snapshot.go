package services

import (
	"context"
	"errors"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"
)

// ledger is everything loaded for one engine run.
type ledger struct {
	game     *gamemodels.Game
	day      *gamemodels.GameDay // nil until day 1 opens
	votes    []models.Vote
	snapshot tally.Snapshot
}

func (l *ledger) declaration(id string) (tally.Declaration, bool) {
	for _, v := range l.votes {
		if v.ID == id {
			return v.Declaration(), true
		}
	}
	return tally.Declaration{}, false
}

func (l *ledger) member(id tally.ParticipantID) (tally.RosterEntry, bool) {
	for _, e := range l.snapshot.Roster {
		if e.ID == id {
			return e, true
		}
	}
	return tally.RosterEntry{}, false
}

// load reads the roster, ledger, aliases and current day of a game into an engine snapshot.
func (s *Service) load(ctx context.Context, game *gamemodels.Game) (*ledger, error) {
	roster, err := s.games.RosterEntries(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	votes, err := s.repo.ListByGame(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	l := &ledger{game: game, votes: votes}
	day, err := s.games.CurrentDay(ctx, game.ID)
	switch {
	case err == nil:
		l.day = day
		l.snapshot.Day = &tally.Day{Number: day.DayNumber, StartPost: day.StartPostSequence}
	case !errors.Is(err, tally.ErrNotFound):
		return nil, err
	}

	memberIDs := make([]string, 0, len(roster))
	onRoster := make(map[string]bool, len(roster))
	for _, e := range roster {
		memberIDs = append(memberIDs, string(e.ID))
		onRoster[string(e.ID)] = true
	}
	aliases, err := s.players.Aliases(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	decls := make([]tally.Declaration, 0, len(votes))
	var outsiders []string
	seen := map[string]bool{}
	for _, v := range votes {
		decls = append(decls, v.Declaration())
		for _, id := range []string{v.AuthorID, v.TargetID} {
			if id != "" && !onRoster[id] && !seen[id] {
				seen[id] = true
				outsiders = append(outsiders, id)
			}
		}
	}

	names := map[tally.ParticipantID]string{}
	if len(outsiders) > 0 {
		found, err := s.players.Names(ctx, outsiders)
		if err != nil {
			return nil, err
		}
		for id, name := range found {
			names[tally.ParticipantID(id)] = name
		}
	}

	anonymous, err := s.players.Anonymous(ctx)
	if err != nil {
		return nil, err
	}

	l.snapshot.Roster = roster
	l.snapshot.Declarations = decls
	l.snapshot.Aliases = aliases
	l.snapshot.Names = names
	l.snapshot.Anonymous = tally.ParticipantID(anonymous.ID)
	return l, nil
}
