package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

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

// IngestDeclaration is one vote or unvote found inside a post.
type IngestDeclaration struct {
	RawTarget string
	Unvote    bool
}

// IngestPost is a post as delivered by the thread extractor.
type IngestPost struct {
	ForumPostID  string
	AuthorName   string
	PostedAt     time.Time
	URL          string
	PageNumber   int
	Declarations []IngestDeclaration
}

// IngestResult counts what an ingestion stored.
type IngestResult struct {
	Posts        int   `json:"posts"`
	Skipped      int   `json:"skipped"`
	Votes        int   `json:"votes"`
	LastSequence int64 `json:"last_sequence"`
}

// Ingest appends new posts, in the given order, and their declarations to the game's ledger.
// Posts already stored under the same forum id are skipped. Only one ingestion runs per game
// at a time; a second caller gets ErrConflict.
func (s *Service) Ingest(ctx context.Context, game *gamemodels.Game, posts []IngestPost) (*IngestResult, error) {
	ctx, span := handlers.StartSpan(ctx, "votes", "ingest",
		attribute.String("votes.game", game.Slug), attribute.Int("votes.posts", len(posts)))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	if game.State == gamemodels.StateClosed {
		err = fmt.Errorf("game %s is closed: %w", game.Slug, tally.ErrConflict)
		return nil, err
	}

	release, err := s.locks.TryLock(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	gamesRepo := s.games.Repository()
	result := &IngestResult{LastSequence: game.LastPostSequence}

	fresh := make([]IngestPost, 0, len(posts))
	seen := map[string]bool{}
	var lastPostAt time.Time
	for _, p := range posts {
		if p.ForumPostID == "" || strings.TrimSpace(p.AuthorName) == "" {
			err = fmt.Errorf("post needs a forum id and an author: %w", tally.ErrConflict)
			return nil, err
		}
		if seen[p.ForumPostID] {
			result.Skipped++
			continue
		}
		seen[p.ForumPostID] = true
		_, getErr := gamesRepo.GetPostByForumID(ctx, game.ID, p.ForumPostID)
		if getErr == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(getErr, tally.ErrNotFound) {
			err = fmt.Errorf("failed to check post %s: %w", p.ForumPostID, getErr)
			return nil, err
		}
		fresh = append(fresh, p)
		if p.PostedAt.After(lastPostAt) {
			lastPostAt = p.PostedAt
		}
	}
	if len(fresh) == 0 {
		return result, nil
	}

	authors := make(map[string]*playermodels.Player, len(fresh))
	for _, p := range fresh {
		key := strings.ToLower(strings.TrimSpace(p.AuthorName))
		author, ok := authors[key]
		if !ok {
			if author, err = s.players.FindOrCreate(ctx, p.AuthorName); err != nil {
				return nil, err
			}
			authors[key] = author
		}
		if touchErr := s.players.Repository().TouchLastPost(ctx, author.ID, p.PostedAt.UTC()); touchErr != nil {
			slog.WarnContext(ctx, "Failed to record last post", "player", author.Name, "error", touchErr)
		}
	}

	// Sequences, posts and votes commit together or not at all.
	skipped := result.Skipped
	err = database.WithTransaction(ctx, s.db.Client, func(sc mongo.SessionContext) error {
		*result = IngestResult{Skipped: skipped, LastSequence: game.LastPostSequence}
		first, err := gamesRepo.ClaimPostSequences(sc, game.ID, int64(len(fresh)), lastPostAt.UTC())
		if err != nil {
			return err
		}

		now := s.now()
		var votes []models.Vote
		for i, p := range fresh {
			author := authors[strings.ToLower(strings.TrimSpace(p.AuthorName))]
			post := &gamemodels.Post{
				ID:          uuid.NewString(),
				GameID:      game.ID,
				Sequence:    first + int64(i),
				ForumPostID: p.ForumPostID,
				AuthorID:    author.ID,
				AuthorName:  author.Name,
				PostedAt:    p.PostedAt.UTC(),
				URL:         p.URL,
				PageNumber:  p.PageNumber,
			}
			inserted, err := gamesRepo.InsertPost(sc, post)
			if err != nil {
				return err
			}
			if !inserted {
				result.Skipped++
				continue
			}
			result.Posts++
			result.LastSequence = post.Sequence

			for j, d := range p.Declarations {
				vote := models.Vote{
					ID:          uuid.NewString(),
					GameID:      game.ID,
					PostID:      post.ID,
					AuthorID:    author.ID,
					RawTarget:   strings.TrimSpace(d.RawTarget),
					Unvote:      d.Unvote,
					Disposition: tally.DispositionPending,
					Order:       tally.OrderKey{PostSequence: post.Sequence, Index: j},
					PostedAt:    post.PostedAt,
					URL:         post.URL,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if d.Unvote {
					vote.RawTarget = ""
					vote.Disposition = tally.DispositionResolved
				}
				votes = append(votes, vote)
			}
		}

		n, err := s.repo.InsertMany(sc, votes)
		if err != nil {
			return err
		}
		result.Votes = n
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to ingest posts: %w", err)
		return nil, err
	}

	s.cache.Invalidate(ctx, game.Slug)
	slog.InfoContext(ctx, "Posts ingested", "game", game.Slug, "posts", result.Posts,
		"skipped", result.Skipped, "votes", result.Votes, "last_sequence", result.LastSequence)
	return result, nil
}
