package services

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	gameservices "github.com/LoganMeitz/votefinder/internal/games/services"
	playerservices "github.com/LoganMeitz/votefinder/internal/players/services"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.opentelemetry.io/otel/attribute"
)

// Service computes tallies from the vote ledger and applies moderator changes to it.
type Service struct {
	db      *database.MongoDB
	repo    *Repository
	games   *gameservices.Service
	players *playerservices.Service
	cache   *TallyCache
	locks   *GameLocks
	now     func() time.Time
}

func NewService(db *database.MongoDB, games *gameservices.Service, players *playerservices.Service, cache *TallyCache, locks *GameLocks) *Service {
	return &Service{
		db:      db,
		repo:    NewRepository(db.Database),
		games:   games,
		players: players,
		cache:   cache,
		locks:   locks,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// VoteCountView is the votecount page of a game. Broken is set when no day has been opened.
type VoteCountView struct {
	Game        string           `json:"game"`
	Name        string           `json:"name"`
	State       gamemodels.State `json:"state"`
	Broken      bool             `json:"broken"`
	Deadline    *time.Time       `json:"deadline,omitempty"`
	DeadlineFmt string           `json:"deadline_text,omitempty"`
	Comment     string           `json:"comment,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Count       *tally.VoteCount `json:"count,omitempty"`
}

// VoteCount runs the engine for the game's current day.
func (s *Service) VoteCount(ctx context.Context, game *gamemodels.Game) (*VoteCountView, error) {
	ctx, span := handlers.StartSpan(ctx, "votes", "votecount", attribute.String("votes.game", game.Slug))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	view := &VoteCountView{
		Game:    game.Slug,
		Name:    game.Name,
		State:   game.State,
		Comment: game.Comment,
	}
	if game.Deadline != nil {
		view.Deadline = game.Deadline
		view.DeadlineFmt = gameservices.FormatDeadline(*game.Deadline, game.Timezone)
	}

	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	fp := l.snapshot.Fingerprint()
	view.Fingerprint = fp

	cacheView := "votecount:" + strconv.FormatBool(game.HideZeroVotes)
	var cached tally.VoteCount
	if s.cache.Get(ctx, game.Slug, cacheView, fp, &cached) {
		view.Count = &cached
		return view, nil
	}

	res, runErr := tally.Run(l.snapshot)
	if errors.Is(runErr, tally.ErrMissingDayBoundary) {
		view.Broken = true
		return view, nil
	}
	if runErr != nil {
		err = runErr
		return nil, err
	}

	count := tally.ProjectTally(res, tally.ProjectionOptions{HideZeroVotes: game.HideZeroVotes})
	s.cache.Set(ctx, game.Slug, cacheView, fp, count)
	view.Count = &count
	return view, nil
}

// VoteLogView is the votechart of a game: every declaration, optionally for one voter.
type VoteLogView struct {
	Game      string              `json:"game"`
	Broken    bool                `json:"broken"`
	Day       int                 `json:"day"`
	StartDate *time.Time          `json:"start_date,omitempty"`
	ToExecute int                 `json:"to_execute"`
	Voter     string              `json:"voter,omitempty"`
	Entries   []tally.VoteLogLine `json:"entries"`
}

// VoteLog returns the chronological vote log. voterRef is a player id or slug; empty means all.
func (s *Service) VoteLog(ctx context.Context, game *gamemodels.Game, voterRef string) (*VoteLogView, error) {
	view := &VoteLogView{Game: game.Slug, Entries: []tally.VoteLogLine{}}

	var voter tally.ParticipantID
	if voterRef != "" {
		player, err := s.players.GetByIDOrSlug(ctx, voterRef)
		if err != nil {
			return nil, err
		}
		voter = tally.ParticipantID(player.ID)
		view.Voter = player.Name
	}

	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	res, err := tally.Run(l.snapshot)
	if errors.Is(err, tally.ErrMissingDayBoundary) {
		view.Broken = true
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	view.Day = res.Day
	view.ToExecute = res.ToExecute
	if post, err := s.games.Repository().GetPost(ctx, game.ID, l.day.StartPostID); err == nil {
		start := post.PostedAt
		view.StartDate = &start
	}

	cacheView := "votelog:" + string(voter)
	fp := l.snapshot.Fingerprint()
	if s.cache.Get(ctx, game.Slug, cacheView, fp, &view.Entries) {
		return view, nil
	}
	view.Entries = tally.ProjectVoteLog(res, voter)
	s.cache.Set(ctx, game.Slug, cacheView, fp, view.Entries)
	return view, nil
}

// PendingItem is one declaration waiting for a moderator decision.
type PendingItem struct {
	ID        string         `json:"id"`
	Author    string         `json:"author"`
	RawTarget string         `json:"raw_target"`
	Order     tally.OrderKey `json:"order"`
	PostedAt  time.Time      `json:"posted_at"`
	URL       string         `json:"url,omitempty"`
}

// PendingView lists unresolved declarations of the current day with the players they may be
// resolved to.
type PendingView struct {
	Game       string                      `json:"game"`
	Broken     bool                        `json:"broken"`
	Pending    []PendingItem               `json:"pending"`
	Candidates []gameservices.RosterMember `json:"candidates"`
}

func (s *Service) Pending(ctx context.Context, game *gamemodels.Game) (*PendingView, error) {
	view := &PendingView{Game: game.Slug, Pending: []PendingItem{}, Candidates: []gameservices.RosterMember{}}

	l, err := s.load(ctx, game)
	if err != nil {
		return nil, err
	}
	for _, e := range l.snapshot.Roster {
		if e.Status == tally.StatusModerator {
			continue
		}
		view.Candidates = append(view.Candidates, gameservices.RosterMember{PlayerID: string(e.ID), Name: e.Name, Status: e.Status})
	}
	slices.SortStableFunc(view.Candidates, func(a, b gameservices.RosterMember) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	res, err := tally.Run(l.snapshot)
	if errors.Is(err, tally.ErrMissingDayBoundary) {
		view.Broken = true
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	for _, p := range res.Pending {
		view.Pending = append(view.Pending, PendingItem{
			ID:        string(p.Declaration),
			Author:    res.Name(p.Author),
			RawTarget: p.RawTarget,
			Order:     p.Order,
			PostedAt:  p.Timestamp,
			URL:       p.URL,
		})
	}
	return view, nil
}
