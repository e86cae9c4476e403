package engine

import (
	"time"

	"github.com/KirkDiggler/combat-api/internal/entities/combat"
)

// ActionRequest is one submitted combat action. Fields beyond Kind carry
// the action-specific data the resolver needs: spells and heals bring an MP
// cost, attacks bring a weapon coefficient and affinity, items and specials
// bring their own base value from external item/ability definitions.
type ActionRequest struct {
	Kind     combat.ActionKind
	Name     string
	TargetID string

	// MPCost applies to spell and heal actions
	MPCost int

	// WeaponCoefficient scales attack damage; zero means 1.0
	WeaponCoefficient float64

	// AffinityName selects the weapon/magic proficiency for the bonus lookup
	AffinityName string

	// BaseValue supplies the item/special base from external definitions
	BaseValue int
}

// ActionOutcome is the resolved effect of one action before persistence
type ActionOutcome struct {
	Damage      int
	Healing     int
	MPCost      int
	Critical    bool
	Missed      bool
	Blocked     bool
	Fled        bool
	Effect      *combat.StatusEffect
	Description string
}

// Cooldown durations per action kind
const (
	CooldownAttack  = 1000 * time.Millisecond
	CooldownSpell   = 3000 * time.Millisecond
	CooldownHeal    = 2000 * time.Millisecond
	CooldownSpecial = 5000 * time.Millisecond
	CooldownItem    = 1500 * time.Millisecond
	CooldownDefend  = 500 * time.Millisecond
	CooldownFlee    = 0
)

// Cooldown returns the cooldown duration for an action kind
func Cooldown(kind combat.ActionKind) time.Duration {
	switch kind {
	case combat.ActionAttack:
		return CooldownAttack
	case combat.ActionSpell:
		return CooldownSpell
	case combat.ActionHeal:
		return CooldownHeal
	case combat.ActionSpecial:
		return CooldownSpecial
	case combat.ActionItem:
		return CooldownItem
	case combat.ActionDefend:
		return CooldownDefend
	default:
		return CooldownFlee
	}
}
