// Package engine implements the combat rules: turn scheduling, action
// validation and resolution, and victory rewards. Everything here is
// computation over in-memory state; persistence and locking live in the
// orchestrator above it.
package engine

import (
	"log/slog"
	"sort"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/combat-api/internal/entities/combat"
	"github.com/KirkDiggler/combat-api/internal/errors"
)

// Scheduler owns turn-order derivation, turn advancement, and end-of-combat
// detection.
type Scheduler struct {
	roller dice.Roller
}

// SchedulerConfig holds the dependencies for the scheduler
type SchedulerConfig struct {
	DiceRoller dice.Roller
}

// Validate ensures all required dependencies are provided
func (c *SchedulerConfig) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.DiceRoller == nil {
		vb.RequiredField("DiceRoller")
	}

	return vb.Build()
}

// NewScheduler creates a turn scheduler
func NewScheduler(cfg *SchedulerConfig) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Scheduler{roller: cfg.DiceRoller}, nil
}

// RollInitiative assigns each participant an initiative of
// 2*dexterity + level + d20. A failed die roll falls back to the midpoint
// so activation never blocks on the roller.
func (s *Scheduler) RollInitiative(participants []*combat.Participant) {
	for _, p := range participants {
		roll, err := s.roller.Roll(20)
		if err != nil {
			slog.Warn("initiative roll failed, using midpoint",
				"actor_id", p.ActorID,
				"error", err,
			)
			roll = 10
		}
		p.Initiative = 2*p.Stats.Dexterity + p.Stats.Level + roll
	}
}

// BuildTurnOrder sorts participants by descending initiative, ties broken
// by input order, and returns the actor ID sequence. The result is fixed
// for the life of the session.
func (s *Scheduler) BuildTurnOrder(participants []*combat.Participant) []string {
	sorted := make([]*combat.Participant, len(participants))
	copy(sorted, participants)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Initiative > sorted[j].Initiative
	})

	order := make([]string, len(sorted))
	for i, p := range sorted {
		order[i] = p.ActorID
	}
	return order
}

// Advance rotates to the next alive participant, skipping dead and fled
// ones, bounded by one full cycle. TurnNumber increments each time the
// rotation wraps past the top of the order.
func (s *Scheduler) Advance(session *combat.Session, participants []*combat.Participant) {
	n := len(session.TurnOrder)
	if n == 0 {
		return
	}

	byActor := indexByActor(participants)

	for i := 0; i < n; i++ {
		session.CurrentTurnIndex = (session.CurrentTurnIndex + 1) % n
		if session.CurrentTurnIndex == 0 {
			session.TurnNumber++
		}

		p := byActor[session.TurnOrder[session.CurrentTurnIndex]]
		if p != nil && p.Alive() {
			return
		}
	}
	// Full cycle with nobody alive: end detection will close the session.
}

// EndResult is the outcome of end-of-combat detection
type EndResult struct {
	Ended      bool
	WinnerSide combat.Side
	// WinnerID is the first alive member of the winning side in turn
	// order; empty on mutual destruction
	WinnerID string
}

// CheckEnd recomputes which sides still field an alive participant. Combat
// ends when at most one side remains.
func (s *Scheduler) CheckEnd(session *combat.Session, participants []*combat.Participant) EndResult {
	byActor := indexByActor(participants)

	aliveSides := make(map[combat.Side]bool)
	var winnerSide combat.Side
	winnerID := ""

	for _, actorID := range session.TurnOrder {
		p := byActor[actorID]
		if p == nil || !p.Alive() {
			continue
		}
		if !aliveSides[p.Side] {
			aliveSides[p.Side] = true
			winnerSide = p.Side
			winnerID = p.ActorID
		}
	}

	if len(aliveSides) > 1 {
		return EndResult{}
	}
	if len(aliveSides) == 0 {
		// Mutual destruction: ended, no winner
		return EndResult{Ended: true}
	}

	return EndResult{
		Ended:      true,
		WinnerSide: winnerSide,
		WinnerID:   winnerID,
	}
}

func indexByActor(participants []*combat.Participant) map[string]*combat.Participant {
	byActor := make(map[string]*combat.Participant, len(participants))
	for _, p := range participants {
		byActor[p.ActorID] = p
	}
	return byActor
}
