package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	playermodels "github.com/LoganMeitz/votefinder/internal/players/models"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/slug"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel/attribute"
)

// Players is the slice of the player directory games rely on.
type Players interface {
	Get(ctx context.Context, id string) (*playermodels.Player, error)
	FindOrCreate(ctx context.Context, name string) (*playermodels.Player, error)
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

// Grants keeps authorization in step with the roster.
type Grants interface {
	GrantGameModerator(playerID, gameID string) error
	RevokeGameModerator(playerID, gameID string) error
}

// Service implements game lifecycle, roster and day management.
type Service struct {
	repo    *Repository
	players Players
	grants  Grants
	now     func() time.Time
}

func NewService(db *database.MongoDB, players Players, grants Grants) *Service {
	return &Service{
		repo:    NewRepository(db.Database),
		players: players,
		grants:  grants,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// CreateParams describes a new game.
type CreateParams struct {
	Name        string
	ThreadID    string
	URL         string
	ModeratorID string
	Timezone    string
}

// Create registers a game in pregame with its moderator on the roster.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Game, error) {
	ctx, span := handlers.StartSpan(ctx, "games", "create", attribute.String("games.thread_id", p.ThreadID))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	moderator, err := s.players.Get(ctx, p.ModeratorID)
	if err != nil {
		return nil, err
	}
	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err = time.LoadLocation(tz); err != nil {
		err = fmt.Errorf("unknown timezone %q: %w", tz, tally.ErrConflict)
		return nil, err
	}
	gameSlug, err := slug.Unique(ctx, p.Name, s.repo.SlugExists)
	if err != nil {
		return nil, err
	}

	now := s.now()
	game := &models.Game{
		ID:          uuid.NewString(),
		Slug:        gameSlug,
		Name:        strings.TrimSpace(p.Name),
		ThreadID:    p.ThreadID,
		URL:         p.URL,
		State:       models.StatePregame,
		ModeratorID: moderator.ID,
		Timezone:    tz,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.repo.InsertGame(ctx, game); err != nil {
		return nil, err
	}
	if err = s.repo.InsertState(ctx, &models.PlayerState{
		ID:       uuid.NewString(),
		GameID:   game.ID,
		PlayerID: moderator.ID,
		Status:   tally.StatusModerator,
	}); err != nil {
		return nil, err
	}
	s.grant(game.ID, moderator.ID)

	s.announce(ctx, game.ID, fmt.Sprintf("A new game was created by %s!", moderator.Name), true)
	slog.InfoContext(ctx, "Game created", "game", game.Slug, "moderator", moderator.Name)
	return game, nil
}

func (s *Service) GetBySlug(ctx context.Context, gameSlug string) (*models.Game, error) {
	return s.repo.GetGame(ctx, bson.M{"slug": gameSlug})
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Game, error) {
	return s.repo.GetGame(ctx, bson.M{"_id": id})
}

func (s *Service) List(ctx context.Context, state models.State, page, limit int) ([]models.Game, int64, error) {
	return s.repo.ListGames(ctx, state, page, limit)
}

// Start moves a pregame game to started, optionally opening day 1 at the latest post.
func (s *Service) Start(ctx context.Context, game *models.Game, openDayOne bool) (*models.Game, error) {
	started, err := s.repo.TransitionState(ctx, game.ID, models.StatePregame, models.StateStarted)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, game.ID, "The game has started!", true)

	if openDayOne {
		if _, err := s.NewDay(ctx, started, 1); err != nil {
			return nil, err
		}
		return s.GetByID(ctx, game.ID)
	}
	return started, nil
}

// Close ends the game. winner is optional free text naming the winning side.
func (s *Service) Close(ctx context.Context, game *models.Game, winner string) (*models.Game, error) {
	if game.State == models.StateClosed {
		return nil, fmt.Errorf("game is already closed: %w", tally.ErrConflict)
	}
	closed, err := s.repo.TransitionState(ctx, game.ID, game.State, models.StateClosed)
	if err != nil {
		return nil, err
	}
	if winner = strings.TrimSpace(winner); winner != "" {
		s.announce(ctx, game.ID, fmt.Sprintf("The game is over. %s has won.", winner), true)
	} else {
		s.announce(ctx, game.ID, "The game is over.", true)
	}
	return closed, nil
}

func (s *Service) Reopen(ctx context.Context, game *models.Game) (*models.Game, error) {
	reopened, err := s.repo.TransitionState(ctx, game.ID, models.StateClosed, models.StateStarted)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, game.ID, "The game is re-opened!", true)
	return reopened, nil
}

// SettingsUpdate carries the optional fields of a settings change.
type SettingsUpdate struct {
	Name           *string
	URL            *string
	Timezone       *string
	Comment        *string
	HideZeroVotes  *bool
	PostExecutions *bool
	Deadline       *string
	ClearDeadline  bool
}

// UpdateSettings applies the given changes. actorName is used for the comment announcement.
func (s *Service) UpdateSettings(ctx context.Context, game *models.Game, actorName string, u SettingsUpdate) (*models.Game, error) {
	set := bson.M{}
	unset := bson.M{}

	if u.Name != nil {
		set["name"] = strings.TrimSpace(*u.Name)
	}
	if u.URL != nil {
		set["url"] = *u.URL
	}
	tz := game.Timezone
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", *u.Timezone, tally.ErrConflict)
		}
		tz = *u.Timezone
		set["timezone"] = tz
	}
	if u.HideZeroVotes != nil {
		set["hide_zero_votes"] = *u.HideZeroVotes
	}
	if u.PostExecutions != nil {
		set["post_executions"] = *u.PostExecutions
	}

	var comment string
	if u.Comment != nil {
		comment = strings.TrimSpace(*u.Comment)
		if comment == "" {
			unset["comment"] = ""
		} else {
			set["comment"] = comment
		}
	}

	var deadline *time.Time
	switch {
	case u.ClearDeadline:
		unset["deadline"] = ""
	case u.Deadline != nil:
		if game.State != models.StateStarted {
			return nil, fmt.Errorf("deadlines can only be set on a started game: %w", tally.ErrConflict)
		}
		dl, err := ParseDeadline(*u.Deadline, tz)
		if err != nil {
			return nil, err
		}
		deadline = &dl
		set["deadline"] = dl.UTC()
	}

	updated, err := s.repo.UpdateGame(ctx, game.ID, set, unset)
	if err != nil {
		return nil, err
	}

	if deadline != nil && game.Deadline == nil {
		s.announce(ctx, game.ID, "A deadline has been set for "+FormatDeadline(*deadline, tz)+".", false)
	}
	if comment != "" && comment != game.Comment {
		s.announce(ctx, game.ID, fmt.Sprintf("%s added a comment: %s", actorName, comment), false)
	}
	return updated, nil
}

var deadlineLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05"}

// ParseDeadline accepts RFC 3339, or a wall-clock time interpreted in the timezone tz.
func ParseDeadline(value, tz string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q: %w", tz, tally.ErrConflict)
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline %q: %w", value, tally.ErrConflict)
}

// FormatDeadline renders the deadline as players in the game's timezone read it.
func FormatDeadline(t time.Time, tz string) string {
	if loc, err := time.LoadLocation(tz); err == nil {
		t = t.In(loc)
	}
	return t.Format("Monday, January 02 at 03:04 PM MST")
}

// Announcements

// Announce records a status update for the game. Ids are time ordered so updates written in
// the same millisecond still list in order.
func (s *Service) Announce(ctx context.Context, gameID, message string, critical bool) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate update id: %w", err)
	}
	return s.repo.InsertStatusUpdate(ctx, &models.StatusUpdate{
		ID:        id.String(),
		GameID:    gameID,
		Message:   message,
		Critical:  critical,
		CreatedAt: s.now(),
	})
}

// announce is Announce for callers whose primary write already succeeded.
func (s *Service) announce(ctx context.Context, gameID, message string, critical bool) {
	if err := s.Announce(ctx, gameID, message, critical); err != nil {
		slog.ErrorContext(ctx, "Failed to record status update", "game_id", gameID, "message", message, "error", err)
	}
}

func (s *Service) Updates(ctx context.Context, gameID string, limit int) ([]models.StatusUpdate, error) {
	return s.repo.ListStatusUpdates(ctx, gameID, limit)
}

// Inactivity

// CloseInactive closes every started game whose last post is older than maxAge and returns
// the slugs it closed.
func (s *Service) CloseInactive(ctx context.Context, maxAge time.Duration) ([]string, error) {
	stale, err := s.repo.StaleGames(ctx, s.now().Add(-maxAge))
	if err != nil {
		return nil, err
	}

	var closed []string
	var errs []error
	for _, game := range stale {
		if _, err := s.repo.TransitionState(ctx, game.ID, models.StateStarted, models.StateClosed); err != nil {
			if errors.Is(err, tally.ErrConflict) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", game.Slug, err))
			continue
		}
		s.announce(ctx, game.ID, "Closed automatically for inactivity.", true)
		closed = append(closed, game.Slug)
		slog.InfoContext(ctx, "Closed inactive game", "game", game.Slug, "last_post_at", game.LastPostAt)
	}
	return closed, errors.Join(errs...)
}

// Grants

// ModeratorGrants lists the (player, game) pairs that should hold moderator rights.
func (s *Service) ModeratorGrants(ctx context.Context) ([]middleware.ModeratorGrant, error) {
	states, err := s.repo.ListModeratorStates(ctx)
	if err != nil {
		return nil, err
	}
	grants := make([]middleware.ModeratorGrant, 0, len(states))
	for _, st := range states {
		grants = append(grants, middleware.ModeratorGrant{PlayerID: st.PlayerID, GameID: st.GameID})
	}
	return grants, nil
}

func (s *Service) grant(gameID, playerID string) {
	if s.grants == nil {
		return
	}
	if err := s.grants.GrantGameModerator(playerID, gameID); err != nil {
		slog.Error("Failed to grant moderator", "game_id", gameID, "player_id", playerID, "error", err)
	}
}

func (s *Service) revoke(gameID, playerID string) {
	if s.grants == nil {
		return
	}
	if err := s.grants.RevokeGameModerator(playerID, gameID); err != nil {
		slog.Error("Failed to revoke moderator", "game_id", gameID, "player_id", playerID, "error", err)
	}
}

// HandOverModerator moves one game's moderator grant between players.
func (s *Service) HandOverModerator(gameID, fromID, toID string) {
	s.revoke(gameID, fromID)
	s.grant(gameID, toID)
}
