// Package external defines the collaborator interfaces the combat core
// consumes: affinity bonuses, character stats, broadcasting, and reward
// crediting. The core depends only on these capabilities; transport and
// persistence behind them belong to other services.
package external

import (
	"context"

	"github.com/KirkDiggler/combat-api/internal/entities/combat"
)

//go:generate mockgen -destination=mock/mock_client.go -package=externalmock github.com/KirkDiggler/combat-api/internal/clients/external BonusProvider,StatsProvider,Broadcaster,RewardSink

// EventKind labels a broadcast event
type EventKind string

// Broadcast event kinds
const (
	EventSessionStart   EventKind = "combat.session_start"
	EventActionResolved EventKind = "combat.action_resolved"
	EventSessionEnd     EventKind = "combat.session_end"
)

// AwardExperienceInput describes one affinity-experience award for a
// damage or healing action
type AwardExperienceInput struct {
	ActorID    string
	ActionName string
	Amount     int
	Critical   bool
	SessionID  string
}

// BonusProvider looks up weapon/magic affinity bonuses and receives
// experience awards. Awards are fire-and-forget: a failure is logged by the
// caller and never rolls back combat state.
type BonusProvider interface {
	// GetBonusPercent returns the actor's bonus percentage for an affinity
	GetBonusPercent(ctx context.Context, actorID, affinityName string) (float64, error)

	// AwardCombatExperience credits affinity experience for a resolved action
	AwardCombatExperience(ctx context.Context, input AwardExperienceInput) error
}

// StatsProvider resolves a character's combat stat block
type StatsProvider interface {
	GetCombatStats(ctx context.Context, characterID string) (*combat.Stats, error)
}

// Broadcaster pushes combat events toward the real-time layer. Delivery is
// at-most-once from the engine's perspective.
type Broadcaster interface {
	Notify(ctx context.Context, sessionID string, kind EventKind, payload interface{}) error
}

// RewardGrant is the victory payout handed to the progression subsystem
type RewardGrant struct {
	SessionID string
	WinnerID  string
	Rewards   combat.Rewards
}

// RewardSink receives victory rewards for downstream crediting
type RewardSink interface {
	AwardRewards(ctx context.Context, grant RewardGrant) error
}
