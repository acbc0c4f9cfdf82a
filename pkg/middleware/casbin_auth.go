package middleware

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

// Role based access with per-game domains. Admin grants live in the global domain;
// moderator grants live in the domain of the game they moderate.
const casbinModel = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub, r.dom) || g(r.sub, p.sub, "*")) && (p.dom == "*" || p.dom == r.dom) && r.obj == p.obj && r.act == p.act
`

const (
	GlobalDomain = "*"

	RoleAdmin         = "role:admin"
	RoleGameModerator = "role:game_moderator"

	ResourceGames     = "games"
	ResourcePlayers   = "players"
	ResourceScheduler = "scheduler"

	ActionCreate   = "create"
	ActionModerate = "moderate"
	ActionAdmin    = "admin"
)

// defaultPolicies are seeded on every start; existing rows are left alone.
var defaultPolicies = [][]string{
	{RoleAdmin, GlobalDomain, ResourceGames, ActionCreate},
	{RoleAdmin, GlobalDomain, ResourceGames, ActionModerate},
	{RoleAdmin, GlobalDomain, ResourcePlayers, ActionAdmin},
	{RoleAdmin, GlobalDomain, ResourceScheduler, ActionAdmin},
	{RoleGameModerator, GlobalDomain, ResourceGames, ActionModerate},
}

// PlayerSubject is the casbin subject of a player.
func PlayerSubject(playerID string) string {
	return "player:" + playerID
}

// GameDomain is the casbin domain of a game.
func GameDomain(gameID string) string {
	return "game:" + gameID
}

// Authorizer answers permission questions for players.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewMongoAuthorizer stores policies in the casbin_policies collection.
func NewMongoAuthorizer(client *mongo.Client, dbName string) (*Authorizer, error) {
	adapter, err := mongodbadapter.NewAdapterByDB(client, &mongodbadapter.AdapterConfig{
		DatabaseName:   dbName,
		CollectionName: "casbin_policies",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin MongoDB adapter: %w", err)
	}

	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load Casbin policies: %w", err)
	}

	slog.Info("Casbin authorizer initialized", "adapter", "mongodb", "collection", "casbin_policies")
	return &Authorizer{enforcer: enforcer}, nil
}

// NewMemoryAuthorizer keeps policies in process memory only.
func NewMemoryAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// SeedPolicies adds the role permissions and grants admin to the given players.
func (a *Authorizer) SeedPolicies(adminPlayerIDs []string) error {
	for _, p := range defaultPolicies {
		if _, err := a.enforcer.AddPolicy(p[0], p[1], p[2], p[3]); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("failed to add policy for %s: %w", p[0], err)
		}
	}
	for _, id := range adminPlayerIDs {
		if err := a.GrantAdmin(id); err != nil {
			return err
		}
	}
	return nil
}

func (a *Authorizer) GrantAdmin(playerID string) error {
	_, err := a.enforcer.AddGroupingPolicy(PlayerSubject(playerID), RoleAdmin, GlobalDomain)
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to grant admin to %s: %w", playerID, err)
	}
	return nil
}

func (a *Authorizer) GrantGameModerator(playerID, gameID string) error {
	_, err := a.enforcer.AddGroupingPolicy(PlayerSubject(playerID), RoleGameModerator, GameDomain(gameID))
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to grant moderator of %s to %s: %w", gameID, playerID, err)
	}
	return nil
}

func (a *Authorizer) RevokeGameModerator(playerID, gameID string) error {
	if _, err := a.enforcer.RemoveGroupingPolicy(PlayerSubject(playerID), RoleGameModerator, GameDomain(gameID)); err != nil {
		return fmt.Errorf("failed to revoke moderator of %s from %s: %w", gameID, playerID, err)
	}
	return nil
}

// MovePlayer hands every grant of one player to another, used when participants are merged.
func (a *Authorizer) MovePlayer(fromPlayerID, toPlayerID string) error {
	from := PlayerSubject(fromPlayerID)
	rules, err := a.enforcer.GetFilteredGroupingPolicy(0, from)
	if err != nil {
		return fmt.Errorf("failed to read grants of %s: %w", fromPlayerID, err)
	}
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		if _, err := a.enforcer.AddGroupingPolicy(PlayerSubject(toPlayerID), rule[1], rule[2]); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("failed to move grant %v: %w", rule, err)
		}
	}
	if _, err := a.enforcer.RemoveFilteredGroupingPolicy(0, from); err != nil {
		return fmt.Errorf("failed to drop grants of %s: %w", fromPlayerID, err)
	}
	return nil
}

// ModeratorGrant is one (player, game) moderator pair.
type ModeratorGrant struct {
	PlayerID string
	GameID   string
}

// SyncGameModerators replaces every moderator grant with the given set.
func (a *Authorizer) SyncGameModerators(grants []ModeratorGrant) error {
	if _, err := a.enforcer.RemoveFilteredGroupingPolicy(1, RoleGameModerator); err != nil {
		return fmt.Errorf("failed to clear moderator grants: %w", err)
	}
	for _, g := range grants {
		if err := a.GrantGameModerator(g.PlayerID, g.GameID); err != nil {
			return err
		}
	}
	slog.Info("Synchronized game moderator grants", "count", len(grants))
	return nil
}

// IsAdmin reports whether the player holds the admin role.
func (a *Authorizer) IsAdmin(playerID string) (bool, error) {
	return a.enforcer.Enforce(PlayerSubject(playerID), GlobalDomain, ResourcePlayers, ActionAdmin)
}

// Can reports whether the player may perform action on resource inside domain.
func (a *Authorizer) Can(playerID, domain, resource, action string) (bool, error) {
	return a.enforcer.Enforce(PlayerSubject(playerID), domain, resource, action)
}

// CanModerate reports whether the player may moderate the game.
func (a *Authorizer) CanModerate(playerID, gameID string) (bool, error) {
	return a.Can(playerID, GameDomain(gameID), ResourceGames, ActionModerate)
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
