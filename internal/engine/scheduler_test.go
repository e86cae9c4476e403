package engine_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/combat-api/internal/engine"
	"github.com/KirkDiggler/combat-api/internal/entities/combat"
)

// scriptedRoller returns a fixed sequence of rolls, then fails
type scriptedRoller struct {
	rolls []int
	next  int
}

func (r *scriptedRoller) Roll(size int) (int, error) {
	if r.next >= len(r.rolls) {
		return 0, fmt.Errorf("scripted roller exhausted after %d rolls", len(r.rolls))
	}
	roll := r.rolls[r.next]
	r.next++
	return roll, nil
}

func (r *scriptedRoller) RollN(count, size int) ([]int, error) {
	results := make([]int, count)
	for i := range results {
		roll, err := r.Roll(size)
		if err != nil {
			return nil, err
		}
		results[i] = roll
	}
	return results, nil
}

func participant(actorID string, side combat.Side, level, dex int) *combat.Participant {
	return &combat.Participant{
		ID:        "part_" + actorID,
		SessionID: "sess_1",
		ActorID:   actorID,
		Side:      side,
		CurrentHP: 100,
		Stats: combat.Stats{
			Level:     level,
			MaxHP:     100,
			Dexterity: dex,
		},
		Status: combat.ParticipantStatusAlive,
	}
}

type SchedulerTestSuite struct {
	suite.Suite
}

func (s *SchedulerTestSuite) newScheduler(rolls ...int) *engine.Scheduler {
	sched, err := engine.NewScheduler(&engine.SchedulerConfig{
		DiceRoller: &scriptedRoller{rolls: rolls},
	})
	s.Require().NoError(err)
	return sched
}

func (s *SchedulerTestSuite) TestRollInitiative() {
	s.Run("initiative is 2*dex + level + d20", func() {
		sched := s.newScheduler(15, 3)
		participants := []*combat.Participant{
			participant("rogue", combat.SideAttackers, 5, 18),
			participant("tank", combat.SideDefenders, 8, 8),
		}

		sched.RollInitiative(participants)

		s.Equal(2*18+5+15, participants[0].Initiative)
		s.Equal(2*8+8+3, participants[1].Initiative)
	})

	s.Run("roll failure falls back to the midpoint", func() {
		sched := s.newScheduler()
		participants := []*combat.Participant{
			participant("rogue", combat.SideAttackers, 5, 18),
		}

		sched.RollInitiative(participants)

		s.Equal(2*18+5+10, participants[0].Initiative)
	})
}

func (s *SchedulerTestSuite) TestBuildTurnOrder() {
	sched := s.newScheduler()

	s.Run("descending initiative", func() {
		a := participant("a", combat.SideAttackers, 1, 1)
		b := participant("b", combat.SideDefenders, 1, 1)
		c := participant("c", combat.SideAttackers, 1, 1)
		a.Initiative = 10
		b.Initiative = 30
		c.Initiative = 20

		s.Equal([]string{"b", "c", "a"}, sched.BuildTurnOrder([]*combat.Participant{a, b, c}))
	})

	s.Run("ties keep join order", func() {
		a := participant("a", combat.SideAttackers, 1, 1)
		b := participant("b", combat.SideDefenders, 1, 1)
		c := participant("c", combat.SideAttackers, 1, 1)
		a.Initiative = 20
		b.Initiative = 20
		c.Initiative = 20

		s.Equal([]string{"a", "b", "c"}, sched.BuildTurnOrder([]*combat.Participant{a, b, c}))
	})

	s.Run("input slice is not reordered", func() {
		a := participant("a", combat.SideAttackers, 1, 1)
		b := participant("b", combat.SideDefenders, 1, 1)
		a.Initiative = 1
		b.Initiative = 2
		in := []*combat.Participant{a, b}

		sched.BuildTurnOrder(in)

		s.Equal("a", in[0].ActorID)
	})
}

func (s *SchedulerTestSuite) TestAdvance() {
	sched := s.newScheduler()

	newSession := func(order ...string) *combat.Session {
		return &combat.Session{
			ID:         "sess_1",
			Status:     combat.SessionStatusActive,
			TurnOrder:  order,
			TurnNumber: 1,
		}
	}

	s.Run("moves to the next alive participant", func() {
		session := newSession("a", "b", "c")
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideDefenders, 1, 1),
			participant("c", combat.SideAttackers, 1, 1),
		}

		sched.Advance(session, participants)

		s.Equal("b", session.CurrentActorID())
		s.Equal(1, session.TurnNumber)
	})

	s.Run("skips dead and fled participants", func() {
		session := newSession("a", "b", "c")
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideDefenders, 1, 1),
			participant("c", combat.SideAttackers, 1, 1),
		}
		participants[1].Status = combat.ParticipantStatusDead

		sched.Advance(session, participants)

		s.Equal("c", session.CurrentActorID())
	})

	s.Run("wrapping past the top increments the turn number", func() {
		session := newSession("a", "b")
		session.CurrentTurnIndex = 1
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideDefenders, 1, 1),
		}

		sched.Advance(session, participants)

		s.Equal("a", session.CurrentActorID())
		s.Equal(2, session.TurnNumber)
	})

	s.Run("fled participant at the top still counts a wrap", func() {
		session := newSession("a", "b", "c")
		session.CurrentTurnIndex = 2
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideDefenders, 1, 1),
			participant("c", combat.SideAttackers, 1, 1),
		}
		participants[0].Status = combat.ParticipantStatusFled

		sched.Advance(session, participants)

		s.Equal("b", session.CurrentActorID())
		s.Equal(2, session.TurnNumber)
	})
}

func (s *SchedulerTestSuite) TestCheckEnd() {
	sched := s.newScheduler()

	newSession := func(order ...string) *combat.Session {
		return &combat.Session{ID: "sess_1", TurnOrder: order}
	}

	s.Run("combat continues while two sides stand", func() {
		session := newSession("a", "b")
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideDefenders, 1, 1),
		}

		s.False(sched.CheckEnd(session, participants).Ended)
	})

	s.Run("last side standing wins", func() {
		session := newSession("a", "b", "c")
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideAttackers, 1, 1),
			participant("c", combat.SideDefenders, 1, 1),
		}
		participants[2].Status = combat.ParticipantStatusDead

		end := sched.CheckEnd(session, participants)
		s.True(end.Ended)
		s.Equal(combat.SideAttackers, end.WinnerSide)
		s.Equal("a", end.WinnerID)
	})

	s.Run("winner is the first alive member in turn order", func() {
		session := newSession("a", "b", "c")
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideAttackers, 1, 1),
			participant("c", combat.SideDefenders, 1, 1),
		}
		participants[0].Status = combat.ParticipantStatusDead
		participants[2].Status = combat.ParticipantStatusFled

		end := sched.CheckEnd(session, participants)
		s.True(end.Ended)
		s.Equal("b", end.WinnerID)
	})

	s.Run("mutual destruction ends with no winner", func() {
		session := newSession("a", "b")
		participants := []*combat.Participant{
			participant("a", combat.SideAttackers, 1, 1),
			participant("b", combat.SideDefenders, 1, 1),
		}
		participants[0].Status = combat.ParticipantStatusDead
		participants[1].Status = combat.ParticipantStatusDead

		end := sched.CheckEnd(session, participants)
		s.True(end.Ended)
		s.Empty(end.WinnerID)
		s.Empty(string(end.WinnerSide))
	})
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}
