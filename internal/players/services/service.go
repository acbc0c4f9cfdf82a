package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/internal/players/models"
	votemodels "github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/slug"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// ErrForbidden is returned when the caller may not touch the resource.
var ErrForbidden = errors.New("forbidden")

// GrantMover moves authorization grants when players are merged.
type GrantMover interface {
	MovePlayer(fromPlayerID, toPlayerID string) error
}

// Service owns players and their aliases.
type Service struct {
	db            *database.MongoDB
	repo          *Repository
	grants        GrantMover
	anonymousName string
}

func NewService(db *database.MongoDB, grants GrantMover, anonymousName string) *Service {
	return &Service{
		db:            db,
		repo:          NewRepository(db.Database),
		grants:        grants,
		anonymousName: anonymousName,
	}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// Create registers a new player. Names are unique without regard to case.
func (s *Service) Create(ctx context.Context, name, forumUserID string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty player name: %w", tally.ErrConflict)
	}
	playerSlug, err := slug.Unique(ctx, name, s.repo.SlugExists)
	if err != nil {
		return nil, err
	}
	player := &models.Player{
		ID:          uuid.NewString(),
		Name:        name,
		NameLower:   strings.ToLower(name),
		Slug:        playerSlug,
		ForumUserID: forumUserID,
	}
	if err := s.repo.Insert(ctx, player); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Player created", "player_id", player.ID, "name", player.Name)
	return player, nil
}

// FindOrCreate returns the player with this name, creating it on first sighting.
func (s *Service) FindOrCreate(ctx context.Context, name string) (*models.Player, error) {
	player, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, tally.ErrNotFound) {
		return nil, err
	}

	player, err = s.Create(ctx, name, "")
	if errors.Is(err, tally.ErrConflict) {
		// lost a race with a concurrent ingest
		return s.repo.GetByName(ctx, name)
	}
	return player, err
}

// Anonymous returns the well-known participant used for authorless moderator votes.
func (s *Service) Anonymous(ctx context.Context) (*models.Player, error) {
	player, err := s.repo.GetAnonymous(ctx)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, tally.ErrNotFound) {
		return nil, err
	}

	player = &models.Player{
		ID:        uuid.NewString(),
		Name:      s.anonymousName,
		NameLower: strings.ToLower(s.anonymousName),
		Slug:      slug.Make(s.anonymousName),
		Anonymous: true,
	}
	if err := s.repo.Insert(ctx, player); err != nil {
		if errors.Is(err, tally.ErrConflict) {
			return s.repo.GetAnonymous(ctx)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "Anonymous player created", "player_id", player.ID)
	return player, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Player, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByIDOrSlug accepts either form, as both appear in URLs.
func (s *Service) GetByIDOrSlug(ctx context.Context, ref string) (*models.Player, error) {
	player, err := s.repo.GetByID(ctx, ref)
	if errors.Is(err, tally.ErrNotFound) {
		return s.repo.GetBySlug(ctx, ref)
	}
	return player, err
}

// PlayerName satisfies the token issuer's lookup.
func (s *Service) PlayerName(ctx context.Context, playerID string) (string, error) {
	player, err := s.repo.GetByID(ctx, playerID)
	if err != nil {
		return "", err
	}
	return player.Name, nil
}

func (s *Service) List(ctx context.Context, search string, page, limit int) ([]models.Player, int64, error) {
	return s.repo.List(ctx, search, page, limit)
}

// Names maps ids to display names for the given players.
func (s *Service) Names(ctx context.Context, ids []string) (map[string]string, error) {
	players, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names, nil
}

// Aliases returns the aliases of the given players in engine form.
func (s *Service) Aliases(ctx context.Context, playerIDs []string) ([]tally.Alias, error) {
	rows, err := s.repo.ListAliases(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	out := make([]tally.Alias, 0, len(rows))
	for _, a := range rows {
		out = append(out, tally.Alias{Participant: tally.ParticipantID(a.PlayerID), Text: a.Text})
	}
	return out, nil
}

func (s *Service) ListAliases(ctx context.Context, playerID string) ([]models.Alias, error) {
	if _, err := s.repo.GetByID(ctx, playerID); err != nil {
		return nil, err
	}
	return s.repo.ListAliases(ctx, []string{playerID})
}

// AddAlias records text as a spelling of the player. Re-adding is a no-op.
func (s *Service) AddAlias(ctx context.Context, playerID, text string) error {
	return s.repo.UpsertAlias(ctx, &models.Alias{ID: uuid.NewString(), PlayerID: playerID, Text: strings.TrimSpace(text)})
}

// DeleteAlias removes an alias; only an admin or the alias owner may do so.
func (s *Service) DeleteAlias(ctx context.Context, aliasID, callerID string, callerIsAdmin bool) error {
	alias, err := s.repo.GetAlias(ctx, aliasID)
	if err != nil {
		return err
	}
	if !callerIsAdmin && alias.PlayerID != callerID {
		return ErrForbidden
	}
	if err := s.repo.DeleteAlias(ctx, aliasID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Alias deleted", "alias_id", aliasID, "player_id", alias.PlayerID, "by", callerID)
	return nil
}

// MergeResult counts the rows repointed by a merge.
type MergeResult struct {
	Games   int64 `json:"games"`
	States  int64 `json:"states"`
	Aliases int64 `json:"aliases"`
	Posts   int64 `json:"posts"`
	Votes   int64 `json:"votes"`
	Settled int64 `json:"settled"`
}

// Merge folds player from into player into: every game, status row, alias, post and vote that
// references from is repointed, and from is deleted. The whole merge is one transaction.
func (s *Service) Merge(ctx context.Context, fromID, intoID string) (*MergeResult, error) {
	ctx, span := handlers.StartSpan(ctx, "players", "merge",
		attribute.String("players.from", fromID), attribute.String("players.into", intoID))
	var err error
	defer func() { handlers.EndSpan(span, err) }()

	if fromID == intoID {
		err = fmt.Errorf("cannot merge a player into itself: %w", tally.ErrConflict)
		return nil, err
	}
	from, err := s.repo.GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if _, err = s.repo.GetByID(ctx, intoID); err != nil {
		return nil, err
	}
	if from.Anonymous {
		err = fmt.Errorf("the anonymous player cannot be merged: %w", tally.ErrConflict)
		return nil, err
	}

	result := &MergeResult{}
	err = database.WithTransaction(ctx, s.db.Client, func(sc mongo.SessionContext) error {
		*result = MergeResult{}
		return s.merge(sc, fromID, intoID, result)
	})
	if err != nil {
		err = fmt.Errorf("failed to merge players: %w", err)
		return nil, err
	}

	if s.grants != nil {
		if grantErr := s.grants.MovePlayer(fromID, intoID); grantErr != nil {
			slog.ErrorContext(ctx, "Failed to move grants after merge", "from", fromID, "into", intoID, "error", grantErr)
		}
	}

	slog.InfoContext(ctx, "Players merged", "from", fromID, "into", intoID,
		"games", result.Games, "states", result.States, "aliases", result.Aliases,
		"posts", result.Posts, "votes", result.Votes, "settled", result.Settled)
	return result, nil
}

func (s *Service) merge(sc mongo.SessionContext, fromID, intoID string, result *MergeResult) error {
	db := s.db.Database
	now := time.Now().UTC()

	settled, err := s.settlePendingVotes(sc, fromID, intoID, now)
	if err != nil {
		return err
	}
	result.Settled = settled

	res, err := db.Collection(gamemodels.GamesCollection).UpdateMany(sc,
		bson.M{"moderator_id": fromID},
		bson.M{"$set": bson.M{"moderator_id": intoID, "updated_at": now}})
	if err != nil {
		return fmt.Errorf("games: %w", err)
	}
	result.Games = res.ModifiedCount

	// Status rows: the target keeps its own row where both played the same game.
	states := db.Collection(gamemodels.PlayerStatesCollection)
	var intoStates []gamemodels.PlayerState
	cursor, err := states.Find(sc, bson.M{"player_id": intoID})
	if err != nil {
		return fmt.Errorf("player states: %w", err)
	}
	if err := cursor.All(sc, &intoStates); err != nil {
		return fmt.Errorf("player states: %w", err)
	}
	if len(intoStates) > 0 {
		games := make([]string, 0, len(intoStates))
		for _, st := range intoStates {
			games = append(games, st.GameID)
		}
		if _, err := states.DeleteMany(sc, bson.M{"player_id": fromID, "game_id": bson.M{"$in": games}}); err != nil {
			return fmt.Errorf("player states: %w", err)
		}
	}
	res, err = states.UpdateMany(sc, bson.M{"player_id": fromID}, bson.M{"$set": bson.M{"player_id": intoID}})
	if err != nil {
		return fmt.Errorf("player states: %w", err)
	}
	result.States = res.ModifiedCount

	aliases := db.Collection(models.AliasesCollection)
	existing, err := s.repo.ListAliases(sc, []string{intoID})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		texts := make([]string, 0, len(existing))
		for _, a := range existing {
			texts = append(texts, a.TextLower)
		}
		if _, err := aliases.DeleteMany(sc, bson.M{"player_id": fromID, "text_lower": bson.M{"$in": texts}}); err != nil {
			return fmt.Errorf("aliases: %w", err)
		}
	}
	res, err = aliases.UpdateMany(sc, bson.M{"player_id": fromID}, bson.M{"$set": bson.M{"player_id": intoID}})
	if err != nil {
		return fmt.Errorf("aliases: %w", err)
	}
	result.Aliases = res.ModifiedCount

	res, err = db.Collection(gamemodels.PostsCollection).UpdateMany(sc,
		bson.M{"author_id": fromID},
		bson.M{"$set": bson.M{"author_id": intoID}})
	if err != nil {
		return fmt.Errorf("posts: %w", err)
	}
	result.Posts = res.ModifiedCount

	votes := db.Collection(votemodels.VotesCollection)
	for _, field := range []string{"author_id", "target_id"} {
		res, err = votes.UpdateMany(sc,
			bson.M{field: fromID},
			bson.M{"$set": bson.M{field: intoID, "updated_at": now}})
		if err != nil {
			return fmt.Errorf("votes %s: %w", field, err)
		}
		result.Votes += res.ModifiedCount
	}

	if _, err := db.Collection(models.PlayersCollection).DeleteOne(sc, bson.M{"_id": fromID}); err != nil {
		return fmt.Errorf("players: %w", err)
	}
	return nil
}

// settlePendingVotes resolves, in every game from plays, the pending votes whose text names
// from through its display name or aliases. They are written as resolved votes for into.
func (s *Service) settlePendingVotes(sc mongo.SessionContext, fromID, intoID string, now time.Time) (int64, error) {
	db := s.db.Database
	states := db.Collection(gamemodels.PlayerStatesCollection)

	gameIDs, err := states.Distinct(sc, "game_id", bson.M{"player_id": fromID})
	if err != nil {
		return 0, fmt.Errorf("player states: %w", err)
	}

	var settled int64
	for _, raw := range gameIDs {
		gameID, ok := raw.(string)
		if !ok {
			continue
		}
		var rows []gamemodels.PlayerState
		cursor, err := states.Find(sc, bson.M{"game_id": gameID})
		if err != nil {
			return 0, fmt.Errorf("player states: %w", err)
		}
		if err := cursor.All(sc, &rows); err != nil {
			return 0, fmt.Errorf("player states: %w", err)
		}
		ids := make([]string, 0, len(rows))
		for _, st := range rows {
			ids = append(ids, st.PlayerID)
		}
		names, err := s.Names(sc, ids)
		if err != nil {
			return 0, err
		}
		aliases, err := s.Aliases(sc, ids)
		if err != nil {
			return 0, err
		}
		roster := make([]tally.RosterEntry, 0, len(rows))
		for _, st := range rows {
			roster = append(roster, tally.RosterEntry{
				Participant: tally.Participant{ID: tally.ParticipantID(st.PlayerID), Name: names[st.PlayerID]},
				Status:      st.Status,
			})
		}
		resolver := tally.NewResolver(aliases, roster)

		var pending []votemodels.Vote
		cursor, err = db.Collection(votemodels.VotesCollection).Find(sc, bson.M{
			"game_id":     gameID,
			"unvote":      false,
			"disposition": tally.DispositionPending,
			"target_id":   bson.M{"$in": bson.A{nil, ""}},
		})
		if err != nil {
			return 0, fmt.Errorf("votes: %w", err)
		}
		if err := cursor.All(sc, &pending); err != nil {
			return 0, fmt.Errorf("votes: %w", err)
		}
		var hits []string
		for _, v := range pending {
			if id, ok := resolver.Resolve(v.RawTarget); ok && string(id) == fromID {
				hits = append(hits, v.ID)
			}
		}
		if len(hits) == 0 {
			continue
		}
		res, err := db.Collection(votemodels.VotesCollection).UpdateMany(sc,
			bson.M{"_id": bson.M{"$in": hits}},
			bson.M{"$set": bson.M{"target_id": intoID, "disposition": tally.DispositionResolved, "updated_at": now}})
		if err != nil {
			return 0, fmt.Errorf("votes: %w", err)
		}
		settled += res.ModifiedCount
	}
	return settled, nil
}
