package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	playermodels "github.com/LoganMeitz/votefinder/internal/players/models"
	"github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

const manualInsertAttempts = 3

func requireStarted(game *gamemodels.Game) error {
	if game.State != gamemodels.StateStarted {
		return fmt.Errorf("game %s is not started: %w", game.Slug, tally.ErrConflict)
	}
	return nil
}

// Vote loads one ledger row.
func (s *Service) Vote(ctx context.Context, id string) (*models.Vote, error) {
	return s.repo.Get(ctx, id)
}

// ManualVote is a moderator-entered vote. An empty AuthorID votes as the anonymous player.
type ManualVote struct {
	AuthorID string
	TargetID string
	Unvote   bool
}

// AddManualVote records a resolved vote at the start of the current day.
func (s *Service) AddManualVote(ctx context.Context, game *gamemodels.Game, mv ManualVote) (*models.Vote, error) {
	ctx, span := handlers.StartSpan(ctx, "votes", "add_manual", attribute.String("votes.game", game.Slug))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	if err = requireStarted(game); err != nil {
		return nil, err
	}
	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	if l.day == nil {
		err = fmt.Errorf("cannot add a vote to game %s: %w", game.Slug, tally.ErrMissingDayBoundary)
		return nil, err
	}

	author := l.snapshot.Anonymous
	if mv.AuthorID != "" {
		entry, ok := l.member(tally.ParticipantID(mv.AuthorID))
		if !ok {
			err = fmt.Errorf("player %s is not in the game: %w", mv.AuthorID, tally.ErrNotFound)
			return nil, err
		}
		author = entry.ID
	}

	vote := &models.Vote{
		GameID:      game.ID,
		PostID:      l.day.StartPostID,
		AuthorID:    string(author),
		Unvote:      mv.Unvote,
		Manual:      true,
		Disposition: tally.DispositionResolved,
		PostedAt:    s.now(),
	}
	if !mv.Unvote {
		target, ok := l.member(tally.ParticipantID(mv.TargetID))
		if !ok {
			err = fmt.Errorf("target %q is not in the game: %w", mv.TargetID, tally.ErrNotFound)
			return nil, err
		}
		vote.TargetID = string(target.ID)
		vote.RawTarget = target.Name
	}

	if err = s.insertAtDayStart(ctx, l.day, []*models.Vote{vote}); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, game.Slug)
	slog.InfoContext(ctx, "Manual vote added", "game", game.Slug, "author", vote.AuthorID, "target", vote.TargetID, "unvote", vote.Unvote)
	return vote, nil
}

// AddGlobalVote casts one anonymous vote against every alive player.
func (s *Service) AddGlobalVote(ctx context.Context, game *gamemodels.Game) ([]*models.Vote, error) {
	ctx, span := handlers.StartSpan(ctx, "votes", "add_global", attribute.String("votes.game", game.Slug))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	if err = requireStarted(game); err != nil {
		return nil, err
	}
	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	if l.day == nil {
		err = fmt.Errorf("cannot add a vote to game %s: %w", game.Slug, tally.ErrMissingDayBoundary)
		return nil, err
	}

	now := s.now()
	var votes []*models.Vote
	for _, e := range l.snapshot.Roster {
		if e.Status != tally.StatusAlive {
			continue
		}
		votes = append(votes, &models.Vote{
			GameID:      game.ID,
			PostID:      l.day.StartPostID,
			AuthorID:    string(l.snapshot.Anonymous),
			TargetID:    string(e.ID),
			RawTarget:   e.Name,
			Manual:      true,
			Disposition: tally.DispositionResolved,
			PostedAt:    now,
		})
	}
	if len(votes) == 0 {
		return votes, nil
	}
	if err = s.insertAtDayStart(ctx, l.day, votes); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, game.Slug)
	slog.InfoContext(ctx, "Global vote added", "game", game.Slug, "targets", len(votes))
	return votes, nil
}

// insertAtDayStart gives the votes consecutive free indexes at the day's start post. A
// concurrent writer taking the same index makes the attempt start over.
func (s *Service) insertAtDayStart(ctx context.Context, day *gamemodels.GameDay, votes []*models.Vote) error {
	var lastErr error
	for attempt := 0; attempt < manualInsertAttempts; attempt++ {
		next, err := s.repo.NextIndex(ctx, day.GameID, day.StartPostSequence)
		if err != nil {
			return err
		}
		lastErr = database.WithTransaction(ctx, s.db.Client, func(sc mongo.SessionContext) error {
			now := s.now()
			for i, v := range votes {
				v.ID = uuid.NewString()
				v.Order = tally.OrderKey{PostSequence: day.StartPostSequence, Index: next + i}
				v.CreatedAt = now
				v.UpdatedAt = now
				if err := s.repo.Insert(sc, v); err != nil {
					return err
				}
			}
			return nil
		})
		if lastErr == nil || !errors.Is(lastErr, tally.ErrConflict) {
			return lastErr
		}
	}
	return lastErr
}

// DeleteVote removes one declaration of a started game.
func (s *Service) DeleteVote(ctx context.Context, game *gamemodels.Game, voteID string) error {
	if err := requireStarted(game); err != nil {
		return err
	}
	vote, err := s.repo.Get(ctx, voteID)
	if err != nil {
		return err
	}
	if vote.GameID != game.ID {
		return fmt.Errorf("vote %s: %w", voteID, tally.ErrNotFound)
	}
	if err := s.repo.Delete(ctx, voteID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, game.Slug)
	slog.InfoContext(ctx, "Vote deleted", "game", game.Slug, "vote_id", voteID)
	return nil
}

// ResolveResult reports what a resolution changed.
type ResolveResult struct {
	Disposition tally.Disposition `json:"disposition"`
	TargetID    string            `json:"target_id,omitempty"`
	Updated     int64             `json:"updated"`
	Alias       string            `json:"alias,omitempty"`
}

// Resolve applies a moderator decision to a pending vote and to every other pending vote of
// the game with the same text. An assignment also records the text as an alias.
func (s *Service) Resolve(ctx context.Context, game *gamemodels.Game, voteID string, decision tally.Decision) (*ResolveResult, error) {
	ctx, span := handlers.StartSpan(ctx, "votes", "resolve",
		attribute.String("votes.game", game.Slug), attribute.String("votes.vote_id", voteID))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	target, ok := l.declaration(voteID)
	if !ok {
		err = fmt.Errorf("vote %s: %w", voteID, tally.ErrNotFound)
		return nil, err
	}
	if assign, isAssign := decision.(tally.Assign); isAssign {
		if _, ok := l.member(assign.Participant); !ok {
			err = fmt.Errorf("player %s is not in the game: %w", assign.Participant, tally.ErrNotFound)
			return nil, err
		}
	}

	plan, err := tally.PlanResolution(target, l.snapshot.Declarations, decision)
	if err != nil {
		return nil, err
	}

	result := &ResolveResult{Disposition: plan.Disposition, TargetID: string(plan.Target)}
	if plan.Alias != nil {
		result.Alias = plan.Alias.Text
	}
	if len(plan.Declarations) == 0 && plan.Alias == nil {
		return result, nil
	}

	ids := make([]string, len(plan.Declarations))
	for i, id := range plan.Declarations {
		ids[i] = string(id)
	}
	err = database.WithTransaction(ctx, s.db.Client, func(sc mongo.SessionContext) error {
		n, err := s.repo.SetOutcome(sc, game.ID, ids, plan.Disposition, string(plan.Target))
		if err != nil {
			return err
		}
		result.Updated = n
		if plan.Alias != nil {
			return s.players.AddAlias(sc, string(plan.Alias.Participant), plan.Alias.Text)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to resolve vote: %w", err)
		return nil, err
	}

	s.cache.Invalidate(ctx, game.Slug)
	slog.InfoContext(ctx, "Vote resolved", "game", game.Slug, "vote_id", voteID,
		"disposition", plan.Disposition, "target", plan.Target, "updated", result.Updated)
	return result, nil
}

// ReplaceResult reports a finished replacement.
type ReplaceResult struct {
	OutgoingID string `json:"outgoing_id"`
	IncomingID string `json:"incoming_id"`
	Incoming   string `json:"incoming"`
	Affected   int    `json:"affected"`
	Deleted    int    `json:"deleted"`
}

// Replace swaps a player for another, found or created by name. Their votes and the votes
// cast at them are rewritten to the incoming player, or deleted when clearVotes is set.
func (s *Service) Replace(ctx context.Context, game *gamemodels.Game, outgoingID, incomingName string, clearVotes bool) (*ReplaceResult, error) {
	ctx, span := handlers.StartSpan(ctx, "votes", "replace",
		attribute.String("votes.game", game.Slug), attribute.String("votes.outgoing", outgoingID))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	if outgoingID == game.ModeratorID {
		err = fmt.Errorf("the game moderator cannot be replaced: %w", tally.ErrConflict)
		return nil, err
	}
	incoming, err := s.players.Repository().GetByName(ctx, incomingName)
	if err != nil && !errors.Is(err, tally.ErrNotFound) {
		return nil, err
	}
	// A player created by this replacement is on no roster yet.
	incomingRef := tally.ParticipantID(uuid.NewString())
	if incoming != nil {
		incomingRef = tally.ParticipantID(incoming.ID)
	}
	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	out := tally.ParticipantID(outgoingID)
	plan, err := tally.PlanReplacement(l.snapshot.Declarations, l.snapshot.Roster, l.snapshot.Aliases, out, incomingRef, clearVotes)
	if err != nil {
		return nil, err
	}
	outEntry, _ := l.member(out)

	repo := s.games.Repository()
	var joined *playermodels.Player
	err = database.WithTransaction(ctx, s.db.Client, func(sc mongo.SessionContext) error {
		player := incoming
		if player == nil {
			created, err := s.players.Create(sc, incomingName, "")
			if err != nil {
				return err
			}
			player = created
		}
		if plan.DeleteIncomingSpectator {
			if err := repo.DeleteState(sc, game.ID, player.ID); err != nil {
				return err
			}
		}
		if err := repo.RepointState(sc, game.ID, outgoingID, player.ID); err != nil {
			return err
		}
		deletes := make([]string, len(plan.Delete))
		for i, id := range plan.Delete {
			deletes[i] = string(id)
		}
		if err := s.repo.DeleteMany(sc, game.ID, deletes); err != nil {
			return err
		}
		var settled []string
		for _, rw := range plan.Rewrites {
			if rw.Author {
				if err := s.repo.Repoint(sc, string(rw.Declaration), "author_id", player.ID); err != nil {
					return err
				}
			}
			switch {
			case rw.Resolved:
				settled = append(settled, string(rw.Declaration))
			case rw.Target:
				if err := s.repo.Repoint(sc, string(rw.Declaration), "target_id", player.ID); err != nil {
					return err
				}
			}
		}
		if len(settled) > 0 {
			if _, err := s.repo.SetOutcome(sc, game.ID, settled, tally.DispositionResolved, player.ID); err != nil {
				return err
			}
		}
		joined = player
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to replace player: %w", err)
		return nil, err
	}

	if outEntry.Status == tally.StatusModerator {
		s.games.HandOverModerator(game.ID, outgoingID, joined.ID)
	}
	if annErr := s.games.Announce(ctx, game.ID, fmt.Sprintf("%s is replaced by %s.", outEntry.Name, joined.Name), false); annErr != nil {
		slog.WarnContext(ctx, "Failed to announce replacement", "game", game.Slug, "error", annErr)
	}
	s.cache.Invalidate(ctx, game.Slug)
	slog.InfoContext(ctx, "Player replaced", "game", game.Slug, "outgoing", outEntry.Name, "incoming", joined.Name,
		"affected", plan.Affected, "clear_votes", clearVotes)

	return &ReplaceResult{
		OutgoingID: outgoingID,
		IncomingID: joined.ID,
		Incoming:   joined.Name,
		Affected:   plan.Affected,
		Deleted:    len(plan.Delete),
	}, nil
}
