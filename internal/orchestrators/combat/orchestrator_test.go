package combat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/combat-api/internal/clients/external"
	externalmock "github.com/KirkDiggler/combat-api/internal/clients/external/mock"
	"github.com/KirkDiggler/combat-api/internal/engine"
	entities "github.com/KirkDiggler/combat-api/internal/entities/combat"
	"github.com/KirkDiggler/combat-api/internal/errors"
	"github.com/KirkDiggler/combat-api/internal/lock"
	combatorch "github.com/KirkDiggler/combat-api/internal/orchestrators/combat"
	"github.com/KirkDiggler/combat-api/internal/pkg/clock"
	"github.com/KirkDiggler/combat-api/internal/pkg/idgen"
	"github.com/KirkDiggler/combat-api/internal/ratelimit"
	"github.com/KirkDiggler/combat-api/internal/redis"
	combatsession "github.com/KirkDiggler/combat-api/internal/repositories/combat_session"
	"github.com/KirkDiggler/combat-api/internal/testutils"
)

// midRoller always lands the die in the middle, so crit (10% at dex 10),
// miss (5%), and block (10%) rolls on a d10000 all fail and every damage
// roll is deterministic.
type midRoller struct{}

func (midRoller) Roll(size int) (int, error) {
	return (size + 1) / 2, nil
}

func (midRoller) RollN(count, size int) ([]int, error) {
	results := make([]int, count)
	for i := range results {
		results[i], _ = midRoller{}.Roll(size)
	}
	return results, nil
}

type OrchestratorTestSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	client          redis.Client
	cleanup         func()
	clock           *clock.Fake
	lockSvc         lock.Service
	repo            combatsession.Repository
	mockStats       *externalmock.MockStatsProvider
	mockBonus       *externalmock.MockBonusProvider
	mockBroadcaster *externalmock.MockBroadcaster
	mockRewardSink  *externalmock.MockRewardSink
	svc             combatorch.Service
	ctx             context.Context
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client, s.cleanup = testutils.CreateTestRedisClient(s.T())
	s.clock = clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()

	s.mockStats = externalmock.NewMockStatsProvider(s.ctrl)
	s.mockBonus = externalmock.NewMockBonusProvider(s.ctrl)
	s.mockBroadcaster = externalmock.NewMockBroadcaster(s.ctrl)
	s.mockRewardSink = externalmock.NewMockRewardSink(s.ctrl)

	repo, err := combatsession.NewRedisRepository(&combatsession.Config{
		Client: s.client,
		Clock:  s.clock,
	})
	s.Require().NoError(err)
	s.repo = repo

	lockSvc, err := lock.New(&lock.Config{
		Client:    s.client,
		Clock:     s.clock,
		BaseDelay: time.Millisecond,
	})
	s.Require().NoError(err)
	s.lockSvc = lockSvc

	s.svc = s.buildService(10)
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.cleanup()
	s.ctrl.Finish()
}

func (s *OrchestratorTestSuite) buildService(rateMax int) combatorch.Service {
	limiter, err := ratelimit.New(&ratelimit.Config{
		Client: s.client,
		Clock:  s.clock,
	})
	s.Require().NoError(err)

	resolver, err := engine.NewResolver(&engine.ResolverConfig{
		DiceRoller:    midRoller{},
		BonusProvider: s.mockBonus,
	})
	s.Require().NoError(err)

	scheduler, err := engine.NewScheduler(&engine.SchedulerConfig{
		DiceRoller: midRoller{},
	})
	s.Require().NoError(err)

	svc, err := combatorch.NewOrchestrator(&combatorch.Config{
		Repo:             s.repo,
		Lock:             s.lockSvc,
		Limiter:          limiter,
		Resolver:         resolver,
		Scheduler:        scheduler,
		Rewards:          engine.NewRewardCalculator(nil),
		Stats:            s.mockStats,
		Bonus:            s.mockBonus,
		Broadcaster:      s.mockBroadcaster,
		RewardSink:       s.mockRewardSink,
		Clock:            s.clock,
		IDGenerator:      idgen.NewSequential("id"),
		ActionRateWindow: time.Minute,
		ActionRateMax:    rateMax,
	})
	s.Require().NoError(err)
	return svc
}

func (s *OrchestratorTestSuite) allowBroadcasts() {
	s.mockBroadcaster.EXPECT().
		Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()
}

func (s *OrchestratorTestSuite) allowExperienceAwards() {
	s.mockBonus.EXPECT().
		AwardCombatExperience(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()
}

func stats(strength int) *entities.Stats {
	return &entities.Stats{
		Level:     10,
		MaxHP:     100,
		MaxMP:     40,
		Strength:  strength,
		Vitality:  10,
		Dexterity: 10,
		Wisdom:    15,
	}
}

// startDuel creates, fills, and activates a two-player session between
// <prefix>_a and <prefix>_b. With equal dexterity and the midpoint d20,
// turn order follows join order.
func (s *OrchestratorTestSuite) startDuel(prefix string, strengthA, strengthB int) (sessionID, actorA, actorB string) {
	actorA = prefix + "_a"
	actorB = prefix + "_b"

	created, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
		Type:      entities.SessionTypeDuel,
		ZoneID:    "zone_1",
		CreatedBy: actorA,
	})
	s.Require().NoError(err)
	sessionID = created.Session.ID

	_, err = s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
		SessionID: sessionID,
		ActorID:   actorA,
		Kind:      entities.ParticipantKindPlayer,
		Side:      entities.SideAttackers,
		Stats:     stats(strengthA),
	})
	s.Require().NoError(err)

	_, err = s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
		SessionID: sessionID,
		ActorID:   actorB,
		Kind:      entities.ParticipantKindPlayer,
		Side:      entities.SideDefenders,
		Stats:     stats(strengthB),
	})
	s.Require().NoError(err)

	activated, err := s.svc.ActivateSession(s.ctx, &combatorch.ActivateSessionInput{SessionID: sessionID})
	s.Require().NoError(err)
	s.Require().Equal([]string{actorA, actorB}, activated.Session.TurnOrder)

	return sessionID, actorA, actorB
}

func (s *OrchestratorTestSuite) attack(sessionID, actorID, targetID string) (*combatorch.SubmitActionOutput, error) {
	return s.svc.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
		SessionID: sessionID,
		ActorID:   actorID,
		Request: &engine.ActionRequest{
			Kind:     entities.ActionAttack,
			Name:     "shortsword",
			TargetID: targetID,
		},
	})
}

func (s *OrchestratorTestSuite) findParticipant(participants []*entities.Participant, actorID string) *entities.Participant {
	for _, p := range participants {
		if p.ActorID == actorID {
			return p
		}
	}
	s.Require().FailNowf("participant not found", "actor %s", actorID)
	return nil
}

func (s *OrchestratorTestSuite) TestCreateSession() {
	s.Run("creates a waiting session", func() {
		out, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type:   entities.SessionTypePvE,
			ZoneID: "zone_1",
		})
		s.Require().NoError(err)
		s.Equal(entities.SessionStatusWaiting, out.Session.Status)
		s.Zero(out.Session.TurnNumber)
		s.NotEmpty(out.Session.ID)
	})

	s.Run("requires a type and zone", func() {
		_, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{ZoneID: "zone_1"})
		s.True(errors.IsInvalidArgument(err))

		_, err = s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{Type: entities.SessionTypePvE})
		s.True(errors.IsInvalidArgument(err))
	})
}

func (s *OrchestratorTestSuite) TestJoinSession() {
	s.Run("joins with caller-provided stats", func() {
		created, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypePvE, ZoneID: "zone_1",
		})
		s.Require().NoError(err)

		out, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: created.Session.ID,
			ActorID:   "actor_a",
			Kind:      entities.ParticipantKindPlayer,
			Side:      entities.SideAttackers,
			Stats:     stats(30),
		})
		s.Require().NoError(err)
		s.Equal(100, out.Participant.CurrentHP)
		s.Equal(40, out.Participant.CurrentMP)
		s.Equal(entities.ParticipantStatusAlive, out.Participant.Status)
	})

	s.Run("fetches stats from the provider when omitted", func() {
		created, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypePvE, ZoneID: "zone_2",
		})
		s.Require().NoError(err)

		s.mockStats.EXPECT().
			GetCombatStats(gomock.Any(), "actor_b").
			Return(stats(25), nil)

		out, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: created.Session.ID,
			ActorID:   "actor_b",
			Kind:      entities.ParticipantKindPlayer,
		})
		s.Require().NoError(err)
		s.Equal(25, out.Participant.Stats.Strength)
	})

	s.Run("auto-assigns the smaller side", func() {
		created, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypePvE, ZoneID: "zone_3",
		})
		s.Require().NoError(err)

		first, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: created.Session.ID, ActorID: "actor_c", Stats: stats(20),
		})
		s.Require().NoError(err)
		s.Equal(entities.SideAttackers, first.Participant.Side)

		second, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: created.Session.ID, ActorID: "actor_d", Stats: stats(20),
		})
		s.Require().NoError(err)
		s.Equal(entities.SideDefenders, second.Participant.Side)
	})

	s.Run("an actor cannot be in two sessions", func() {
		other, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypePvE, ZoneID: "zone_4",
		})
		s.Require().NoError(err)

		_, err = s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: other.Session.ID, ActorID: "actor_a", Stats: stats(30),
		})
		s.Require().Error(err)
		s.True(entities.IsKind(err, entities.ErrKindAlreadyInCombat))
	})

	s.Run("unknown session is a combat not found error", func() {
		_, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: "sess_missing", ActorID: "actor_z", Stats: stats(30),
		})
		s.True(entities.IsKind(err, entities.ErrKindCombatNotFound))
	})

	s.Run("joining a started session is rejected", func() {
		s.allowBroadcasts()
		sessionID, _, _ := s.startDuel("join", 30, 30)

		_, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: sessionID, ActorID: "actor_late", Stats: stats(20),
		})
		s.True(entities.IsKind(err, entities.ErrKindCombatEnded))
	})
}

func (s *OrchestratorTestSuite) TestActivateSession() {
	s.allowBroadcasts()

	s.Run("needs at least two participants", func() {
		created, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypePvE, ZoneID: "zone_1",
		})
		s.Require().NoError(err)

		_, err = s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: created.Session.ID, ActorID: "actor_a", Stats: stats(30),
		})
		s.Require().NoError(err)

		_, err = s.svc.ActivateSession(s.ctx, &combatorch.ActivateSessionInput{SessionID: created.Session.ID})
		s.Require().Error(err)
		s.True(errors.GetCode(err) == errors.CodeFailedPrecondition)
	})

	s.Run("activation fixes turn order and starts turn one", func() {
		sessionID, actorA, _ := s.startDuel("act1", 30, 30)

		got, err := s.svc.GetSession(s.ctx, &combatorch.GetSessionInput{SessionID: sessionID})
		s.Require().NoError(err)
		s.Equal(entities.SessionStatusActive, got.Session.Status)
		s.Equal(1, got.Session.TurnNumber)
		s.Equal(actorA, got.Session.CurrentActorID())
		s.NotNil(got.Session.StartedAt)
		s.NotZero(got.Participants[0].Initiative)
	})

	s.Run("cannot activate twice", func() {
		sessionID, _, _ := s.startDuel("act2", 30, 30)

		_, err := s.svc.ActivateSession(s.ctx, &combatorch.ActivateSessionInput{SessionID: sessionID})
		s.True(entities.IsKind(err, entities.ErrKindCombatEnded))
	})
}

func (s *OrchestratorTestSuite) TestSubmitAction() {
	s.allowBroadcasts()
	s.allowExperienceAwards()

	s.Run("resolves an attack and advances the turn", func() {
		sessionID, actorA, actorB := s.startDuel("sub1", 30, 30)

		out, err := s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)

		// str 30 vs vit 10: base 20, midpoint variance 3 of spread 6
		s.Equal(23, out.Outcome.Damage)
		s.Equal(actorB, out.Session.CurrentActorID())
		s.Equal(1, out.Session.TurnNumber)
		s.Nil(out.Rewards)

		got, err := s.svc.GetSession(s.ctx, &combatorch.GetSessionInput{SessionID: sessionID})
		s.Require().NoError(err)
		for _, p := range got.Participants {
			switch p.ActorID {
			case actorA:
				s.Equal(23, p.DamageDealt)
				s.Equal(1, p.ActionsUsed)
			case actorB:
				s.Equal(77, p.CurrentHP)
			}
		}

		listed, err := s.svc.ListActions(s.ctx, &combatorch.ListActionsInput{SessionID: sessionID})
		s.Require().NoError(err)
		s.Require().Len(listed.Actions, 1)
		s.Equal(23, listed.Actions[0].Damage)
		s.Equal(1, listed.Actions[0].TurnNumber)
	})

	s.Run("out-of-turn submission is rejected and leaves no trace", func() {
		sessionID, actorA, actorB := s.startDuel("sub2", 30, 30)

		_, err := s.attack(sessionID, actorB, actorA)
		s.True(entities.IsKind(err, entities.ErrKindNotYourTurn))

		listed, err := s.svc.ListActions(s.ctx, &combatorch.ListActionsInput{SessionID: sessionID})
		s.Require().NoError(err)
		s.Empty(listed.Actions)
	})

	s.Run("full round wraps the turn number", func() {
		sessionID, actorA, actorB := s.startDuel("sub3", 30, 30)

		_, err := s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)

		s.clock.Advance(2 * time.Second)
		out, err := s.attack(sessionID, actorB, actorA)
		s.Require().NoError(err)
		s.Equal(actorA, out.Session.CurrentActorID())
		s.Equal(2, out.Session.TurnNumber)
	})

	s.Run("cooldowns persist across turns", func() {
		sessionID, actorA, actorB := s.startDuel("sub4", 30, 30)

		_, err := s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)

		// actorB acts 2s later, the round comes back to actorA with
		// actorA's 1s attack cooldown long expired
		s.clock.Advance(2 * time.Second)
		_, err = s.attack(sessionID, actorB, actorA)
		s.Require().NoError(err)

		_, err = s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)
	})

	s.Run("defeat ends the session and pays the winner", func() {
		sessionID, actorA, actorB := s.startDuel("sub5", 120, 30)

		s.mockRewardSink.EXPECT().
			AwardRewards(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, grant external.RewardGrant) error {
				s.Equal(actorA, grant.WinnerID)
				s.Positive(grant.Rewards.Experience)
				s.Positive(grant.Rewards.Gold)
				return nil
			})

		// Half a minute into the fight, well inside the swift-victory window
		s.clock.Advance(30 * time.Second)
		out, err := s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)

		s.Equal(entities.SessionStatusEnded, out.Session.Status)
		s.Equal(actorA, out.Session.WinnerID)
		s.Equal(entities.SideAttackers, out.Session.WinnerSide)
		s.Require().NotNil(out.Rewards)
		// 10 defeated levels, duel multiplier 1.2, swift victory +10%
		s.Equal(330, out.Rewards.Experience)
		s.Equal(132, out.Rewards.Gold)

		// Both actors are free to fight again
		free, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypeDuel, ZoneID: "zone_next",
		})
		s.Require().NoError(err)
		_, err = s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: free.Session.ID, ActorID: actorB, Stats: stats(30),
		})
		s.Require().NoError(err)
	})

	s.Run("actions after the end are rejected", func() {
		sessionID, actorA, actorB := s.startDuel("sub6", 120, 30)

		s.mockRewardSink.EXPECT().
			AwardRewards(gomock.Any(), gomock.Any()).
			Return(nil)

		_, err := s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)

		_, err = s.attack(sessionID, actorB, actorA)
		s.True(entities.IsKind(err, entities.ErrKindCombatEnded))
	})

	s.Run("a raised shield outlives its own commit and halves the next hit", func() {
		sessionID, actorA, actorB := s.startDuel("sub8", 30, 30)

		out, err := s.svc.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
			SessionID: sessionID,
			ActorID:   actorA,
			Request:   &engine.ActionRequest{Kind: entities.ActionDefend},
		})
		s.Require().NoError(err)
		s.Require().NotNil(out.Outcome.Effect)

		// The defender still carries the shield on the opponent's turn
		got, err := s.svc.GetSession(s.ctx, &combatorch.GetSessionInput{SessionID: sessionID})
		s.Require().NoError(err)
		defender := s.findParticipant(got.Participants, actorA)
		s.Require().Len(defender.Effects, 1)
		s.Equal("shield", defender.Effects[0].Kind)
		s.Equal(1, defender.Effects[0].RemainingTurns)

		// The clean 23-point hit is halved by the shield
		hit, err := s.attack(sessionID, actorB, actorA)
		s.Require().NoError(err)
		s.Equal(11, hit.Outcome.Damage)

		got, err = s.svc.GetSession(s.ctx, &combatorch.GetSessionInput{SessionID: sessionID})
		s.Require().NoError(err)
		s.Equal(89, s.findParticipant(got.Participants, actorA).CurrentHP)
		s.Len(s.findParticipant(got.Participants, actorA).Effects, 1)

		// The shield runs out as the defender's next turn begins
		_, err = s.attack(sessionID, actorA, actorB)
		s.Require().NoError(err)

		got, err = s.svc.GetSession(s.ctx, &combatorch.GetSessionInput{SessionID: sessionID})
		s.Require().NoError(err)
		s.Empty(s.findParticipant(got.Participants, actorA).Effects)
	})

	s.Run("fleeing removes the actor and ends a duel", func() {
		sessionID, actorA, actorB := s.startDuel("sub7", 30, 30)

		s.mockRewardSink.EXPECT().
			AwardRewards(gomock.Any(), gomock.Any()).
			Return(nil)

		// midpoint d10000 is 5000, under the 7500 flee threshold
		out, err := s.svc.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
			SessionID: sessionID,
			ActorID:   actorA,
			Request:   &engine.ActionRequest{Kind: entities.ActionFlee},
		})
		s.Require().NoError(err)

		s.True(out.Outcome.Fled)
		s.Equal(entities.SessionStatusEnded, out.Session.Status)
		s.Equal(actorB, out.Session.WinnerID)
	})
}

func (s *OrchestratorTestSuite) TestSubmitActionRateLimit() {
	s.allowBroadcasts()
	s.allowExperienceAwards()

	limited := s.buildService(2)
	sessionID, actorA, actorB := s.startDuel("rate", 30, 30)

	// The shared startDuel helper went through the default service; the
	// limited one reads the same store
	_, err := limited.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
		SessionID: sessionID,
		ActorID:   actorA,
		Request:   &engine.ActionRequest{Kind: entities.ActionAttack, TargetID: actorB},
	})
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Second)
	_, err = limited.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
		SessionID: sessionID,
		ActorID:   actorB,
		Request:   &engine.ActionRequest{Kind: entities.ActionAttack, TargetID: actorA},
	})
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Second)
	_, err = limited.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
		SessionID: sessionID,
		ActorID:   actorA,
		Request:   &engine.ActionRequest{Kind: entities.ActionAttack, TargetID: actorB},
	})
	s.Require().NoError(err)

	// The third submission inside the window is throttled before any combat
	// validation runs
	s.clock.Advance(2 * time.Second)
	_, err = limited.SubmitAction(s.ctx, &combatorch.SubmitActionInput{
		SessionID: sessionID,
		ActorID:   actorA,
		Request:   &engine.ActionRequest{Kind: entities.ActionAttack, TargetID: actorB},
	})
	s.Require().Error(err)
	s.True(entities.IsKind(err, entities.ErrKindRateLimited))

	combatErr, ok := entities.AsError(err)
	s.Require().True(ok)
	s.False(combatErr.ResetTime.IsZero())
}

func (s *OrchestratorTestSuite) TestSessionLockContention() {
	s.allowBroadcasts()

	sessionID, actorA, actorB := s.startDuel("lock", 30, 30)

	// Another instance holds the session lock
	held, err := s.lockSvc.Acquire(s.ctx, "combat-session:"+sessionID)
	s.Require().NoError(err)
	defer func() {
		_, _ = s.lockSvc.Release(s.ctx, held)
	}()

	s.Run("action submission is rejected", func() {
		_, err := s.attack(sessionID, actorA, actorB)
		s.Require().Error(err)
		s.True(entities.IsKind(err, entities.ErrKindLockNotAcquired))
	})

	s.Run("joining is rejected", func() {
		_, err := s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: sessionID, ActorID: "actor_late", Stats: stats(20),
		})
		s.Require().Error(err)
		s.True(entities.IsKind(err, entities.ErrKindLockNotAcquired))
	})
}

func (s *OrchestratorTestSuite) TestCancelSession() {
	s.allowBroadcasts()

	s.Run("cancelling frees the actors without a winner", func() {
		sessionID, actorA, _ := s.startDuel("can1", 30, 30)

		out, err := s.svc.CancelSession(s.ctx, &combatorch.CancelSessionInput{SessionID: sessionID})
		s.Require().NoError(err)
		s.Equal(entities.SessionStatusCancelled, out.Session.Status)
		s.Empty(out.Session.WinnerID)

		// Actors can immediately join elsewhere
		next, err := s.svc.CreateSession(s.ctx, &combatorch.CreateSessionInput{
			Type: entities.SessionTypeDuel, ZoneID: "zone_next",
		})
		s.Require().NoError(err)
		_, err = s.svc.JoinSession(s.ctx, &combatorch.JoinSessionInput{
			SessionID: next.Session.ID, ActorID: actorA, Stats: stats(30),
		})
		s.Require().NoError(err)
	})

	s.Run("a terminal session cannot be cancelled again", func() {
		sessionID, _, _ := s.startDuel("can2", 30, 30)

		_, err := s.svc.CancelSession(s.ctx, &combatorch.CancelSessionInput{SessionID: sessionID})
		s.Require().NoError(err)

		_, err = s.svc.CancelSession(s.ctx, &combatorch.CancelSessionInput{SessionID: sessionID})
		s.True(entities.IsKind(err, entities.ErrKindCombatEnded))
	})
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
