package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/combat-api/internal/clients/external"
	"github.com/KirkDiggler/combat-api/internal/entities/combat"
	"github.com/KirkDiggler/combat-api/internal/errors"
)

// Probabilities in basis points of d10000 rolls
const (
	missChanceBP    = 500  // flat 5% miss on attacks
	blockChanceBP   = 1000 // flat 10% block on attacks
	fleeSuccessBP   = 7500 // flat 75% flee success
	critBaseBP      = 500  // 5% base crit, plus dexterity scaling
	critPerDexBP    = 50   // dexterity/200 as basis points per point
	shieldTurns     = 1
	shieldMagnitude = 0.5
	shieldKind      = "shield"
)

// spellSpec is one entry in the per-spell-name coefficient table. Unknown
// spells resolve with a neutral coefficient. Chilled and poisoned are
// broadcast riders with no mechanical hook; only shield changes damage.
type spellSpec struct {
	Coefficient float64
	Effect      *combat.StatusEffect
}

var spellTable = map[string]spellSpec{
	"fireball":    {Coefficient: 1.5},
	"ice_shard":   {Coefficient: 1.2, Effect: &combat.StatusEffect{Kind: "chilled", RemainingTurns: 2, Magnitude: 0.25}},
	"lightning":   {Coefficient: 1.8},
	"arcane_bolt": {Coefficient: 1.0},
	"poison_mist": {Coefficient: 0.8, Effect: &combat.StatusEffect{Kind: "poisoned", RemainingTurns: 3, Magnitude: 0.1}},
}

// Resolver validates action submissions and computes their outcomes. It is
// stateless; all randomness flows through the injected roller and all
// external data through the bonus provider.
type Resolver struct {
	roller dice.Roller
	bonus  external.BonusProvider
}

// ResolverConfig holds the dependencies for the resolver
type ResolverConfig struct {
	DiceRoller    dice.Roller
	BonusProvider external.BonusProvider
}

// Validate ensures all required dependencies are provided
func (c *ResolverConfig) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.DiceRoller == nil {
		vb.RequiredField("DiceRoller")
	}
	if c.BonusProvider == nil {
		vb.RequiredField("BonusProvider")
	}

	return vb.Build()
}

// NewResolver creates an action resolver
func NewResolver(cfg *ResolverConfig) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Resolver{
		roller: cfg.DiceRoller,
		bonus:  cfg.BonusProvider,
	}, nil
}

// Validate checks an action submission against the session state. Checks
// run in a fixed order and the first failure wins; every failure is a typed
// combat error the caller can map to a user-facing response.
func (r *Resolver) Validate(session *combat.Session, participants []*combat.Participant, actorID string, req *ActionRequest, now time.Time) error {
	if session == nil {
		return combat.ErrCombatNotFound("")
	}
	if session.Status != combat.SessionStatusActive {
		return combat.ErrCombatEnded(session.ID, session.Status)
	}
	if session.CurrentActorID() != actorID {
		return combat.ErrNotYourTurn(actorID, session.CurrentActorID())
	}

	byActor := indexByActor(participants)
	actor := byActor[actorID]
	if actor == nil {
		return combat.ErrNotParticipant(actorID)
	}
	if !actor.Alive() {
		return combat.ErrParticipantDead(actorID, actor.Status)
	}

	if remaining := actor.CooldownRemaining(req.Kind, now); remaining > 0 {
		return combat.ErrActionOnCooldown(req.Kind, remaining)
	}

	if req.Kind == combat.ActionSpell || req.Kind == combat.ActionHeal {
		if actor.CurrentMP < req.MPCost {
			return combat.ErrInsufficientMP(req.MPCost, actor.CurrentMP)
		}
	}

	if requiresTarget(req.Kind) && req.TargetID == "" {
		return combat.ErrInvalidTarget("")
	}
	if req.TargetID != "" {
		target := byActor[req.TargetID]
		if target == nil {
			return combat.ErrInvalidTarget(req.TargetID)
		}
		if target.Status == combat.ParticipantStatusDead {
			return combat.ErrTargetDead(req.TargetID)
		}
	}

	return nil
}

// Resolve computes the outcome of a validated action. Target may be nil for
// untargeted kinds; heals with no target heal the actor.
func (r *Resolver) Resolve(ctx context.Context, actor, target *combat.Participant, req *ActionRequest) *ActionOutcome {
	switch req.Kind {
	case combat.ActionAttack:
		return r.resolveAttack(ctx, actor, target, req)
	case combat.ActionSpell:
		return r.resolveSpell(ctx, actor, target, req)
	case combat.ActionHeal:
		return r.resolveHeal(ctx, actor, target, req)
	case combat.ActionDefend:
		return r.resolveDefend(actor)
	case combat.ActionFlee:
		return r.resolveFlee(actor)
	case combat.ActionItem, combat.ActionSpecial:
		return r.resolveWithBase(actor, target, req)
	default:
		return &ActionOutcome{Description: fmt.Sprintf("%s does nothing", actor.ActorID)}
	}
}

// resolveAttack runs the physical damage pipeline: stat difference scaled
// by the weapon, affinity bonus, variance, then crit, miss, and block rolls
// in that exact order.
func (r *Resolver) resolveAttack(ctx context.Context, actor, target *combat.Participant, req *ActionRequest) *ActionOutcome {
	coeff := req.WeaponCoefficient
	if coeff == 0 {
		coeff = 1.0
	}

	base := int(float64(actor.Stats.Strength-target.Stats.Vitality) * coeff)
	if base < 1 {
		base = 1
	}

	bonusPct := r.lookupBonus(ctx, actor.ActorID, req.AffinityName)
	enhanced := int(float64(base) * (1 + bonusPct/100))

	damage := enhanced + r.variance(enhanced, 3)

	outcome := &ActionOutcome{}
	outcome.Critical = r.chance(critChanceBP(actor.Stats.Dexterity))
	if outcome.Critical {
		damage = damage * 3 / 2
	}

	outcome.Missed = r.chance(missChanceBP)
	if outcome.Missed {
		damage = 0
	}

	outcome.Blocked = r.chance(blockChanceBP)
	if outcome.Blocked {
		damage = damage * 3 / 10
	}

	outcome.Damage = shieldedDamage(target, damage)
	outcome.Description = describeHit(actor.ActorID, target.ActorID, req.Name, outcome)
	return outcome
}

// resolveSpell runs the magic damage pipeline: no miss or block, higher
// crit rate, and a per-spell coefficient and optional status effect.
func (r *Resolver) resolveSpell(ctx context.Context, actor, target *combat.Participant, req *ActionRequest) *ActionOutcome {
	base := actor.Stats.Intelligence*3/2 + actor.Stats.Level

	bonusPct := r.lookupBonus(ctx, actor.ActorID, req.AffinityName)
	enhanced := int(float64(base) * (1 + bonusPct/100))

	damage := enhanced + r.variance(enhanced, 2)

	spec, known := spellTable[req.Name]
	if known {
		damage = int(float64(damage) * spec.Coefficient)
	}

	outcome := &ActionOutcome{MPCost: req.MPCost}
	outcome.Critical = r.chance(critChanceBP(actor.Stats.Dexterity) * 3 / 2)
	if outcome.Critical {
		damage = damage * 3 / 2
	}

	outcome.Damage = shieldedDamage(target, damage)
	if known && spec.Effect != nil {
		effect := *spec.Effect
		effect.Source = actor.ActorID
		outcome.Effect = &effect
	}
	outcome.Description = describeHit(actor.ActorID, target.ActorID, req.Name, outcome)
	return outcome
}

// resolveHeal restores HP on the target, or the actor when untargeted
func (r *Resolver) resolveHeal(ctx context.Context, actor, target *combat.Participant, req *ActionRequest) *ActionOutcome {
	base := actor.Stats.Wisdom*6/5 + actor.Stats.Level

	bonusPct := r.lookupBonus(ctx, actor.ActorID, req.AffinityName)
	enhanced := int(float64(base) * (1 + bonusPct/100))

	healing := enhanced + r.variance(enhanced, 2)

	recipient := actor.ActorID
	if target != nil {
		recipient = target.ActorID
	}

	return &ActionOutcome{
		Healing:     healing,
		MPCost:      req.MPCost,
		Description: fmt.Sprintf("%s heals %s for %d", actor.ActorID, recipient, healing),
	}
}

// resolveDefend raises a shield that guards the actor until the start of
// their next turn
func (r *Resolver) resolveDefend(actor *combat.Participant) *ActionOutcome {
	return &ActionOutcome{
		Effect: &combat.StatusEffect{
			Kind:           shieldKind,
			RemainingTurns: shieldTurns,
			Magnitude:      shieldMagnitude,
			Source:         actor.ActorID,
		},
		Description: fmt.Sprintf("%s raises a shield", actor.ActorID),
	}
}

// resolveFlee succeeds 75% of the time; a failed flee wastes the turn
func (r *Resolver) resolveFlee(actor *combat.Participant) *ActionOutcome {
	if r.chance(fleeSuccessBP) {
		return &ActionOutcome{
			Fled:        true,
			Description: fmt.Sprintf("%s flees the battle", actor.ActorID),
		}
	}
	return &ActionOutcome{
		Description: fmt.Sprintf("%s tries to flee but fails", actor.ActorID),
	}
}

// resolveWithBase runs the attack machinery over an externally supplied
// base value, used for items and special abilities.
func (r *Resolver) resolveWithBase(actor, target *combat.Participant, req *ActionRequest) *ActionOutcome {
	base := req.BaseValue
	if base < 1 {
		base = 1
	}

	damage := base + r.variance(base, 3)

	outcome := &ActionOutcome{}
	outcome.Critical = r.chance(critChanceBP(actor.Stats.Dexterity))
	if outcome.Critical {
		damage = damage * 3 / 2
	}

	outcome.Missed = r.chance(missChanceBP)
	if outcome.Missed {
		damage = 0
	}

	outcome.Blocked = r.chance(blockChanceBP)
	if outcome.Blocked {
		damage = damage * 3 / 10
	}

	outcome.Damage = shieldedDamage(target, damage)
	targetID := actor.ActorID
	if target != nil {
		targetID = target.ActorID
	}
	outcome.Description = describeHit(actor.ActorID, targetID, req.Name, outcome)
	return outcome
}

// lookupBonus asks the affinity provider for the actor's bonus percentage.
// Lookup failure degrades to zero and never fails the action.
func (r *Resolver) lookupBonus(ctx context.Context, actorID, affinityName string) float64 {
	if affinityName == "" {
		return 0
	}

	pct, err := r.bonus.GetBonusPercent(ctx, actorID, affinityName)
	if err != nil {
		slog.Warn("affinity bonus lookup failed, treating as zero",
			"actor_id", actorID,
			"affinity", affinityName,
			"error", err,
		)
		return 0
	}
	return pct
}

// variance rolls the additive damage spread: 1 up to tenths/10 of the
// enhanced value (3 tenths for physical, 2 for magic).
func (r *Resolver) variance(enhanced, tenths int) int {
	maxSpread := enhanced * tenths / 10
	if maxSpread < 1 {
		maxSpread = 1
	}

	roll, err := r.roller.Roll(maxSpread)
	if err != nil {
		slog.Warn("variance roll failed, using minimum", "error", err)
		return 1
	}
	return roll
}

// chance rolls a d10000 against a basis-point threshold
func (r *Resolver) chance(bp int) bool {
	if bp <= 0 {
		return false
	}
	if bp >= 10000 {
		return true
	}

	roll, err := r.roller.Roll(10000)
	if err != nil {
		slog.Warn("probability roll failed, treating as miss", "error", err)
		return false
	}
	return roll <= bp
}

// shieldedDamage scales incoming damage down by the target's active
// shield, rounding down. Runs last in every damage pipeline.
func shieldedDamage(target *combat.Participant, damage int) int {
	if target == nil || damage <= 0 {
		return damage
	}
	for _, e := range target.Effects {
		if e.Kind == shieldKind && e.Magnitude > 0 {
			return int(float64(damage) * (1 - e.Magnitude))
		}
	}
	return damage
}

// critChanceBP scales crit chance with dexterity: 5% plus dex/200,
// deliberately unbounded at extreme dexterity.
func critChanceBP(dexterity int) int {
	return critBaseBP + dexterity*critPerDexBP
}

func requiresTarget(kind combat.ActionKind) bool {
	return kind == combat.ActionAttack || kind == combat.ActionSpell
}

func describeHit(actorID, targetID, name string, outcome *ActionOutcome) string {
	if name == "" {
		name = "attack"
	}
	switch {
	case outcome.Missed:
		return fmt.Sprintf("%s's %s misses %s", actorID, name, targetID)
	case outcome.Critical && outcome.Blocked:
		return fmt.Sprintf("%s's %s crits %s but is partially blocked for %d", actorID, name, targetID, outcome.Damage)
	case outcome.Critical:
		return fmt.Sprintf("%s's %s crits %s for %d", actorID, name, targetID, outcome.Damage)
	case outcome.Blocked:
		return fmt.Sprintf("%s's %s is partially blocked by %s for %d", actorID, name, targetID, outcome.Damage)
	default:
		return fmt.Sprintf("%s's %s hits %s for %d", actorID, name, targetID, outcome.Damage)
	}
}
