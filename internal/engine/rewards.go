package engine

import (
	"time"

	"github.com/KirkDiggler/combat-api/internal/entities/combat"
)

// Reward tuning defaults
const (
	defaultExperiencePerLevel = 25
	defaultGoldPerLevel       = 10

	// Victories inside the swift-victory window pay a 10% premium
	swiftVictoryWindow  = 2 * time.Minute
	swiftVictoryPercent = 10
)

// RewardConfig tunes the victory payout formula
type RewardConfig struct {
	ExperiencePerLevel int
	GoldPerLevel       int
	TypeMultipliers    map[combat.SessionType]float64
	ItemDrops          map[combat.SessionType][]string
}

// defaultTypeMultipliers weights payouts by encounter difficulty
func defaultTypeMultipliers() map[combat.SessionType]float64 {
	return map[combat.SessionType]float64{
		combat.SessionTypePvE:   1.0,
		combat.SessionTypeDuel:  1.2,
		combat.SessionTypePvP:   1.5,
		combat.SessionTypeArena: 1.5,
		combat.SessionTypeBoss:  2.0,
	}
}

// RewardCalculator computes experience, gold, and item drops on victory.
// It produces a value and nothing else; crediting happens through the
// reward sink collaborator.
type RewardCalculator struct {
	experiencePerLevel int
	goldPerLevel       int
	typeMultipliers    map[combat.SessionType]float64
	itemDrops          map[combat.SessionType][]string
}

// NewRewardCalculator creates a reward calculator; a nil config uses defaults
func NewRewardCalculator(cfg *RewardConfig) *RewardCalculator {
	calc := &RewardCalculator{
		experiencePerLevel: defaultExperiencePerLevel,
		goldPerLevel:       defaultGoldPerLevel,
		typeMultipliers:    defaultTypeMultipliers(),
	}

	if cfg != nil {
		if cfg.ExperiencePerLevel > 0 {
			calc.experiencePerLevel = cfg.ExperiencePerLevel
		}
		if cfg.GoldPerLevel > 0 {
			calc.goldPerLevel = cfg.GoldPerLevel
		}
		if cfg.TypeMultipliers != nil {
			calc.typeMultipliers = cfg.TypeMultipliers
		}
		calc.itemDrops = cfg.ItemDrops
	}

	return calc
}

// Calculate computes the payout for the winning side: defeated participant
// levels scaled by the session type multiplier, with a premium for swift
// victories. Mutual destruction pays nothing.
func (c *RewardCalculator) Calculate(session *combat.Session, participants []*combat.Participant, duration time.Duration) *combat.Rewards {
	if session.WinnerSide == "" {
		return &combat.Rewards{}
	}

	defeatedLevels := 0
	for _, p := range participants {
		if p.Side != session.WinnerSide {
			defeatedLevels += p.Stats.Level
		}
	}

	multiplier, ok := c.typeMultipliers[session.Type]
	if !ok {
		multiplier = 1.0
	}

	experience := int(float64(defeatedLevels*c.experiencePerLevel) * multiplier)
	gold := int(float64(defeatedLevels*c.goldPerLevel) * multiplier)

	if duration > 0 && duration < swiftVictoryWindow {
		experience += experience * swiftVictoryPercent / 100
		gold += gold * swiftVictoryPercent / 100
	}

	var items []string
	if c.itemDrops != nil {
		items = c.itemDrops[session.Type]
	}

	return &combat.Rewards{
		Experience: experience,
		Gold:       gold,
		Items:      items,
	}
}
