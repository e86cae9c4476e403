// Package combat implements the combat orchestrator: the transactional glue
// that serializes action submissions per session behind a distributed lock,
// throttles actors, and drives the rules engine against the session store.
package combat

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/combat-api/internal/clients/external"
	"github.com/KirkDiggler/combat-api/internal/engine"
	entities "github.com/KirkDiggler/combat-api/internal/entities/combat"
	"github.com/KirkDiggler/combat-api/internal/errors"
	"github.com/KirkDiggler/combat-api/internal/lock"
	"github.com/KirkDiggler/combat-api/internal/pkg/clock"
	"github.com/KirkDiggler/combat-api/internal/pkg/idgen"
	"github.com/KirkDiggler/combat-api/internal/ratelimit"
	combatsession "github.com/KirkDiggler/combat-api/internal/repositories/combat_session"
)

//go:generate mockgen -destination=mock/mock_service.go -package=combatmock github.com/KirkDiggler/combat-api/internal/orchestrators/combat Service

const (
	// lockResourcePrefix namespaces per-session locks
	lockResourcePrefix = "combat-session:"

	// actionRateKeyPrefix namespaces the per-actor action rate domain
	actionRateKeyPrefix = "combat:action:"

	defaultActionRateWindow = 60 * time.Second
	defaultActionRateMax    = 10

	minParticipantsToActivate = 2
)

// Service defines the combat engine operations
type Service interface {
	// CreateSession creates a session in waiting status
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// JoinSession seeds a participant into a waiting session
	JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error)

	// ActivateSession rolls initiative, fixes the turn order, and starts combat
	ActivateSession(ctx context.Context, input *ActivateSessionInput) (*ActivateSessionOutput, error)

	// SubmitAction validates, resolves, and atomically persists one action
	SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error)

	// GetSession reads a session and its participants
	GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error)

	// ListActions reads the append-only action log
	ListActions(ctx context.Context, input *ListActionsInput) (*ListActionsOutput, error)

	// CancelSession terminates a session without a winner
	CancelSession(ctx context.Context, input *CancelSessionInput) (*CancelSessionOutput, error)
}

// Config holds the dependencies for the combat orchestrator
type Config struct {
	Repo        combatsession.Repository
	Lock        lock.Service
	Limiter     ratelimit.Limiter
	Resolver    *engine.Resolver
	Scheduler   *engine.Scheduler
	Rewards     *engine.RewardCalculator
	Stats       external.StatsProvider
	Bonus       external.BonusProvider
	Broadcaster external.Broadcaster
	RewardSink  external.RewardSink
	Clock       clock.Clock
	IDGenerator idgen.Generator

	// ActionRateWindow and ActionRateMax tune the per-actor throttle
	ActionRateWindow time.Duration
	ActionRateMax    int

	// RateLimitFailOpen allows actions through when the rate-limit store
	// is unreachable. The degradation is logged every time it happens.
	RateLimitFailOpen bool
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Repo == nil {
		vb.RequiredField("Repo")
	}
	if c.Lock == nil {
		vb.RequiredField("Lock")
	}
	if c.Limiter == nil {
		vb.RequiredField("Limiter")
	}
	if c.Resolver == nil {
		vb.RequiredField("Resolver")
	}
	if c.Scheduler == nil {
		vb.RequiredField("Scheduler")
	}
	if c.Rewards == nil {
		vb.RequiredField("Rewards")
	}
	if c.Stats == nil {
		vb.RequiredField("Stats")
	}
	if c.Bonus == nil {
		vb.RequiredField("Bonus")
	}
	if c.Broadcaster == nil {
		vb.RequiredField("Broadcaster")
	}
	if c.RewardSink == nil {
		vb.RequiredField("RewardSink")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

type orchestrator struct {
	repo        combatsession.Repository
	lock        lock.Service
	limiter     ratelimit.Limiter
	resolver    *engine.Resolver
	scheduler   *engine.Scheduler
	rewards     *engine.RewardCalculator
	stats       external.StatsProvider
	bonus       external.BonusProvider
	broadcaster external.Broadcaster
	rewardSink  external.RewardSink
	clock       clock.Clock
	idGen       idgen.Generator

	rateWindow   time.Duration
	rateMax      int
	rateFailOpen bool
}

// NewOrchestrator creates a combat orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &orchestrator{
		repo:         cfg.Repo,
		lock:         cfg.Lock,
		limiter:      cfg.Limiter,
		resolver:     cfg.Resolver,
		scheduler:    cfg.Scheduler,
		rewards:      cfg.Rewards,
		stats:        cfg.Stats,
		bonus:        cfg.Bonus,
		broadcaster:  cfg.Broadcaster,
		rewardSink:   cfg.RewardSink,
		clock:        cfg.Clock,
		idGen:        cfg.IDGenerator,
		rateWindow:   cfg.ActionRateWindow,
		rateMax:      cfg.ActionRateMax,
		rateFailOpen: cfg.RateLimitFailOpen,
	}
	if o.rateWindow == 0 {
		o.rateWindow = defaultActionRateWindow
	}
	if o.rateMax == 0 {
		o.rateMax = defaultActionRateMax
	}

	return o, nil
}

var _ Service = (*orchestrator)(nil)

// CreateSession creates a session in waiting status
func (o *orchestrator) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Type == "" {
		return nil, errors.InvalidArgument("session type is required")
	}
	if input.ZoneID == "" {
		return nil, errors.InvalidArgument("zone ID is required")
	}

	now := o.clock.Now()
	session := &entities.Session{
		ID:         o.idGen.Generate(),
		Type:       input.Type,
		Status:     entities.SessionStatusWaiting,
		ZoneID:     input.ZoneID,
		CreatedBy:  input.CreatedBy,
		TurnNumber: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := o.repo.CreateSession(ctx, combatsession.CreateSessionInput{Session: session})
	if err != nil {
		return nil, err
	}

	slog.Info("combat session created",
		"session_id", session.ID,
		"type", session.Type,
		"zone_id", session.ZoneID,
	)

	return &CreateSessionOutput{Session: created.Session}, nil
}

// JoinSession seeds a participant into a waiting session
func (o *orchestrator) JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if input.ActorID == "" {
		return nil, errors.InvalidArgument("actor ID is required")
	}

	var output *JoinSessionOutput

	// The lock keeps concurrent joins from clobbering each other's roster
	// append and keeps a join from landing after activation fixed the
	// turn order
	err := o.withSessionLock(ctx, input.SessionID, func(ctx context.Context) error {
		existing, err := o.repo.GetActorSession(ctx, combatsession.GetActorSessionInput{ActorID: input.ActorID})
		if err == nil && existing.SessionID != input.SessionID {
			return entities.ErrAlreadyInCombat(input.ActorID, existing.SessionID)
		}
		if err != nil && !errors.IsNotFound(err) {
			return err
		}

		got, err := o.getSession(ctx, input.SessionID)
		if err != nil {
			return err
		}
		if got.Session.Status != entities.SessionStatusWaiting {
			return entities.ErrCombatEnded(input.SessionID, got.Session.Status)
		}

		stats := input.Stats
		if stats == nil {
			stats, err = o.stats.GetCombatStats(ctx, input.ActorID)
			if err != nil {
				return errors.Wrapf(err, "failed to load combat stats for %s", input.ActorID)
			}
		}

		side := input.Side
		if side == "" {
			side = assignSide(got.Participants)
		}

		participant := &entities.Participant{
			ID:        o.idGen.Generate(),
			SessionID: input.SessionID,
			ActorID:   input.ActorID,
			Kind:      input.Kind,
			Side:      side,
			Position:  input.Position,
			CurrentHP: stats.MaxHP,
			CurrentMP: stats.MaxMP,
			Stats:     *stats,
			Status:    entities.ParticipantStatusAlive,
			JoinedAt:  o.clock.Now(),
		}

		added, err := o.repo.AddParticipant(ctx, combatsession.AddParticipantInput{Participant: participant})
		if err != nil {
			return err
		}

		slog.Info("participant joined combat",
			"session_id", input.SessionID,
			"actor_id", input.ActorID,
			"side", side,
		)

		output = &JoinSessionOutput{Participant: added.Participant}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// ActivateSession rolls initiative, fixes the turn order, and starts combat
func (o *orchestrator) ActivateSession(ctx context.Context, input *ActivateSessionInput) (*ActivateSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	var output *ActivateSessionOutput

	err := o.withSessionLock(ctx, input.SessionID, func(ctx context.Context) error {
		got, err := o.getSession(ctx, input.SessionID)
		if err != nil {
			return err
		}
		session := got.Session
		participants := got.Participants

		if session.Status != entities.SessionStatusWaiting {
			return entities.ErrCombatEnded(session.ID, session.Status)
		}
		if len(participants) < minParticipantsToActivate {
			return errors.FailedPreconditionf("need at least %d participants to start combat, have %d",
				minParticipantsToActivate, len(participants))
		}

		o.scheduler.RollInitiative(participants)
		session.TurnOrder = o.scheduler.BuildTurnOrder(participants)
		session.CurrentTurnIndex = 0
		session.TurnNumber = 1
		session.Status = entities.SessionStatusActive
		now := o.clock.Now()
		session.StartedAt = &now

		// One atomic write covers the session and every participant's
		// freshly rolled initiative
		if _, err := o.repo.UpdateSession(ctx, combatsession.UpdateSessionInput{
			Session:      session,
			Participants: participants,
		}); err != nil {
			return err
		}

		o.notify(ctx, session.ID, external.EventSessionStart, &SessionStartPayload{
			Session:      session,
			Participants: participants,
		})

		slog.Info("combat session activated",
			"session_id", session.ID,
			"turn_order", session.TurnOrder,
			"first_turn", session.CurrentActorID(),
		)

		output = &ActivateSessionOutput{Session: session, Participants: participants}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// SubmitAction validates, resolves, and atomically persists one action.
// The per-session lock totally orders mutations to one session; the
// per-actor sliding window throttles how fast any actor can act.
func (o *orchestrator) SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}
	if input.ActorID == "" {
		return nil, errors.InvalidArgument("actor ID is required")
	}
	if input.Request == nil {
		return nil, errors.InvalidArgument("action request is required")
	}

	var output *SubmitActionOutput

	err := o.withSessionLock(ctx, input.SessionID, func(ctx context.Context) error {
		if err := o.checkActionRate(ctx, input.ActorID); err != nil {
			return err
		}

		got, err := o.getSession(ctx, input.SessionID)
		if err != nil {
			return err
		}
		session := got.Session
		participants := got.Participants
		now := o.clock.Now()

		if err := o.resolver.Validate(session, participants, input.ActorID, input.Request, now); err != nil {
			return err
		}

		actor, target := findActorAndTarget(participants, input.ActorID, input.Request.TargetID)

		// Effects from earlier rounds run out as the actor's new turn
		// begins, so anything applied by this action survives on the
		// committed row until the actor acts again
		actor.TickEffects()

		outcome := o.resolver.Resolve(ctx, actor, target, input.Request)

		mutated := applyOutcome(actor, target, input.Request, outcome, now)

		action := o.buildAction(session, actor, input.Request, outcome, now)

		end := o.scheduler.CheckEnd(session, participants)
		if end.Ended {
			session.Status = entities.SessionStatusEnded
			session.WinnerID = end.WinnerID
			session.WinnerSide = end.WinnerSide
			session.EndedAt = &now
		} else {
			o.scheduler.Advance(session, participants)
		}

		if _, err := o.repo.ApplyAction(ctx, combatsession.ApplyActionInput{
			Session:      session,
			Participants: mutated,
			Action:       action,
			SessionEnded: end.Ended,
		}); err != nil {
			return err
		}

		// Everything after the commit is fire-and-forget: logged, never
		// rolled back.
		o.awardExperience(ctx, session, action)
		o.notify(ctx, session.ID, external.EventActionResolved, &ActionPayload{
			Action:        action,
			CurrentTurn:   session.CurrentActorID(),
			TurnNumber:    session.TurnNumber,
			SessionStatus: string(session.Status),
		})

		var rewards *entities.Rewards
		if end.Ended {
			rewards = o.settleRewards(ctx, session, participants)
		}

		output = &SubmitActionOutput{
			Session: session,
			Action:  action,
			Outcome: outcome,
			Rewards: rewards,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// GetSession reads a session and its participants
func (o *orchestrator) GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	return o.getSession(ctx, input.SessionID)
}

// ListActions reads the append-only action log
func (o *orchestrator) ListActions(ctx context.Context, input *ListActionsInput) (*ListActionsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	listed, err := o.repo.ListActions(ctx, combatsession.ListActionsInput{SessionID: input.SessionID})
	if err != nil {
		return nil, err
	}

	return &ListActionsOutput{Actions: listed.Actions}, nil
}

// CancelSession terminates a session without a winner
func (o *orchestrator) CancelSession(ctx context.Context, input *CancelSessionInput) (*CancelSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	var output *CancelSessionOutput

	err := o.withSessionLock(ctx, input.SessionID, func(ctx context.Context) error {
		got, err := o.getSession(ctx, input.SessionID)
		if err != nil {
			return err
		}
		session := got.Session

		if session.IsTerminal() {
			return entities.ErrCombatEnded(session.ID, session.Status)
		}

		session.Status = entities.SessionStatusCancelled
		now := o.clock.Now()
		session.EndedAt = &now

		if _, err := o.repo.UpdateSession(ctx, combatsession.UpdateSessionInput{
			Session:           session,
			ClearActorIndexes: true,
		}); err != nil {
			return err
		}

		o.notify(ctx, session.ID, external.EventSessionEnd, &SessionEndPayload{
			SessionID: session.ID,
			Status:    string(session.Status),
			Duration:  sessionDuration(session),
			Summary:   summarize(got.Participants),
		})

		slog.Info("combat session cancelled", "session_id", session.ID)

		output = &CancelSessionOutput{Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// withSessionLock serializes all mutations to one session across every
// server instance. Lock-store failures and exhausted retries both surface
// as LockNotAcquired: locking fails closed.
func (o *orchestrator) withSessionLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	resource := lockResourcePrefix + sessionID

	err := o.lock.WithLock(ctx, resource, fn)
	if err == nil {
		return nil
	}
	if lock.IsNotAcquired(err) {
		return entities.ErrLockNotAcquired(resource)
	}
	if errors.IsUnavailable(err) {
		slog.Error("lock store unavailable, rejecting combat mutation",
			"session_id", sessionID,
			"error", err,
		)
		return entities.ErrLockNotAcquired(resource)
	}
	return err
}

// checkActionRate throttles the actor's submissions. Store failure either
// fails open (explicitly logged) or rejects, depending on configuration.
func (o *orchestrator) checkActionRate(ctx context.Context, actorID string) error {
	decision, err := o.limiter.CheckAndRecord(ctx, actionRateKeyPrefix+actorID, o.rateWindow, o.rateMax)
	if err != nil {
		if o.rateFailOpen {
			slog.Warn("rate-limit store unavailable, failing open",
				"actor_id", actorID,
				"error", err,
			)
			return nil
		}
		return err
	}
	if !decision.Allowed {
		return entities.ErrRateLimited(decision.ResetTime)
	}
	return nil
}

func (o *orchestrator) getSession(ctx context.Context, sessionID string) (*GetSessionOutput, error) {
	got, err := o.repo.GetSession(ctx, combatsession.GetSessionInput{SessionID: sessionID})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, entities.ErrCombatNotFound(sessionID)
		}
		return nil, err
	}

	return &GetSessionOutput{
		Session:      got.Session,
		Participants: got.Participants,
	}, nil
}

func (o *orchestrator) buildAction(session *entities.Session, actor *entities.Participant, req *engine.ActionRequest, outcome *engine.ActionOutcome, now time.Time) *entities.Action {
	return &entities.Action{
		ID:            o.idGen.Generate(),
		SessionID:     session.ID,
		ActorID:       actor.ActorID,
		TargetID:      req.TargetID,
		Kind:          req.Kind,
		Name:          req.Name,
		Damage:        outcome.Damage,
		Healing:       outcome.Healing,
		MPCost:        outcome.MPCost,
		Critical:      outcome.Critical,
		Blocked:       outcome.Blocked,
		Missed:        outcome.Missed,
		EffectApplied: outcome.Effect,
		Description:   outcome.Description,
		TurnNumber:    session.TurnNumber,
		Timestamp:     now,
	}
}

// awardExperience fires the affinity-experience award for damage and
// healing actions. Failures are logged and swallowed.
func (o *orchestrator) awardExperience(ctx context.Context, session *entities.Session, action *entities.Action) {
	amount := action.Damage + action.Healing
	if amount <= 0 {
		return
	}

	err := o.bonus.AwardCombatExperience(ctx, external.AwardExperienceInput{
		ActorID:    action.ActorID,
		ActionName: action.Name,
		Amount:     amount,
		Critical:   action.Critical,
		SessionID:  session.ID,
	})
	if err != nil {
		slog.Warn("affinity experience award failed",
			"session_id", session.ID,
			"actor_id", action.ActorID,
			"error", err,
		)
	}
}

// settleRewards computes the victory payout, hands it to the reward sink,
// and broadcasts session end. All failures are logged and swallowed.
func (o *orchestrator) settleRewards(ctx context.Context, session *entities.Session, participants []*entities.Participant) *entities.Rewards {
	rewards := o.rewards.Calculate(session, participants, sessionDuration(session))

	if session.WinnerID != "" {
		err := o.rewardSink.AwardRewards(ctx, external.RewardGrant{
			SessionID: session.ID,
			WinnerID:  session.WinnerID,
			Rewards:   *rewards,
		})
		if err != nil {
			slog.Warn("reward crediting failed",
				"session_id", session.ID,
				"winner_id", session.WinnerID,
				"error", err,
			)
		}
	}

	o.notify(ctx, session.ID, external.EventSessionEnd, &SessionEndPayload{
		SessionID: session.ID,
		Status:    string(session.Status),
		WinnerID:  session.WinnerID,
		Duration:  sessionDuration(session),
		Rewards:   rewards,
		Summary:   summarize(participants),
	})

	slog.Info("combat session ended",
		"session_id", session.ID,
		"winner_id", session.WinnerID,
		"winner_side", session.WinnerSide,
	)

	return rewards
}

// notify broadcasts an event at most once; delivery failure never affects
// combat state.
func (o *orchestrator) notify(ctx context.Context, sessionID string, kind external.EventKind, payload interface{}) {
	if err := o.broadcaster.Notify(ctx, sessionID, kind, payload); err != nil {
		slog.Warn("broadcast failed",
			"session_id", sessionID,
			"event", kind,
			"error", err,
		)
	}
}

// applyOutcome mutates the actor and target per the resolved outcome and
// returns the participants whose rows changed.
func applyOutcome(actor, target *entities.Participant, req *engine.ActionRequest, outcome *engine.ActionOutcome, now time.Time) []*entities.Participant {
	actor.ActionsUsed++
	if cd := engine.Cooldown(req.Kind); cd > 0 {
		actor.SetCooldown(req.Kind, now.Add(cd))
	}

	if outcome.MPCost > 0 {
		actor.SpendMP(outcome.MPCost)
	}

	if outcome.Damage > 0 && target != nil {
		target.ApplyDamage(outcome.Damage)
		actor.DamageDealt += outcome.Damage
	}

	if outcome.Healing > 0 {
		recipient := actor
		if target != nil {
			recipient = target
		}
		recipient.ApplyHealing(outcome.Healing)
	}

	if outcome.Effect != nil {
		recipient := actor
		if req.Kind == entities.ActionSpell && target != nil {
			recipient = target
		}
		recipient.AddEffect(*outcome.Effect)
	}

	if outcome.Fled {
		actor.Status = entities.ParticipantStatusFled
	}

	mutated := []*entities.Participant{actor}
	if target != nil && target.ActorID != actor.ActorID {
		mutated = append(mutated, target)
	}
	return mutated
}

func findActorAndTarget(participants []*entities.Participant, actorID, targetID string) (actor, target *entities.Participant) {
	for _, p := range participants {
		if p.ActorID == actorID {
			actor = p
		}
		if targetID != "" && p.ActorID == targetID {
			target = p
		}
	}
	return actor, target
}

// assignSide balances new joiners across attackers and defenders
func assignSide(participants []*entities.Participant) entities.Side {
	attackers, defenders := 0, 0
	for _, p := range participants {
		switch p.Side {
		case entities.SideAttackers:
			attackers++
		case entities.SideDefenders:
			defenders++
		}
	}
	if attackers <= defenders {
		return entities.SideAttackers
	}
	return entities.SideDefenders
}

func sessionDuration(session *entities.Session) time.Duration {
	if session.StartedAt == nil || session.EndedAt == nil {
		return 0
	}
	return session.EndedAt.Sub(*session.StartedAt)
}

func summarize(participants []*entities.Participant) []ParticipantSummary {
	summary := make([]ParticipantSummary, len(participants))
	for i, p := range participants {
		summary[i] = ParticipantSummary{
			ActorID:     p.ActorID,
			Side:        string(p.Side),
			Status:      string(p.Status),
			DamageDealt: p.DamageDealt,
			DamageTaken: p.DamageTaken,
			ActionsUsed: p.ActionsUsed,
		}
	}
	return summary
}
