package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/combat-api/internal/clients/external"
	"github.com/KirkDiggler/combat-api/internal/config"
	"github.com/KirkDiggler/combat-api/internal/engine"
	"github.com/KirkDiggler/combat-api/internal/entities/combat"
	"github.com/KirkDiggler/combat-api/internal/lock"
	combatorch "github.com/KirkDiggler/combat-api/internal/orchestrators/combat"
	"github.com/KirkDiggler/combat-api/internal/pkg/clock"
	"github.com/KirkDiggler/combat-api/internal/pkg/idgen"
	"github.com/KirkDiggler/combat-api/internal/ratelimit"
	"github.com/KirkDiggler/combat-api/internal/redis"
	combatsession "github.com/KirkDiggler/combat-api/internal/repositories/combat_session"
)

var (
	simulateEmbedded bool
	simulateTurns    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a smoke-test combat encounter",
	Long:  `Wires the full stack against Redis, runs one duel to completion, and prints the action log.`,
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateEmbedded, "embedded", false, "run against an embedded in-process Redis")
	simulateCmd.Flags().IntVar(&simulateTurns, "max-turns", 200, "abort the encounter after this many actions")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	client, cleanup, err := buildRedis(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := buildService(cfg, client)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return runEncounter(ctx, svc)
}

func buildRedis(cfg *config.Config) (redis.Client, func(), error) {
	if simulateEmbedded {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded redis: %w", err)
		}
		client, err := redis.NewClient(mr.Addr(), nil)
		if err != nil {
			mr.Close()
			return nil, nil, err
		}
		return client, mr.Close, nil
	}

	opts := &redis.Options{
		PoolSize: cfg.RedisPoolSize,
		UseTLS:   cfg.RedisUseTLS,
	}

	var client redis.Client
	var err error
	if cfg.UseSentinel() {
		client, err = redis.NewFailoverClient(cfg.SentinelMaster, cfg.SentinelAddrs, opts)
	} else {
		client, err = redis.NewClient(cfg.RedisAddress, opts)
	}
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func buildService(cfg *config.Config, client redis.Client) (combatorch.Service, error) {
	clk := clock.New()

	repo, err := combatsession.NewRedisRepository(&combatsession.Config{
		Client: client,
		Clock:  clk,
		TTL:    cfg.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	locks, err := lock.New(&lock.Config{
		Client:    client,
		Clock:     clk,
		TTL:       cfg.LockTTL,
		Retries:   cfg.LockRetries,
		BaseDelay: cfg.LockBaseDelay,
	})
	if err != nil {
		return nil, err
	}

	limiter, err := ratelimit.New(&ratelimit.Config{
		Client: client,
		Clock:  clk,
	})
	if err != nil {
		return nil, err
	}

	stub := &localWorld{}

	resolver, err := engine.NewResolver(&engine.ResolverConfig{
		DiceRoller:    dice.DefaultRoller,
		BonusProvider: stub,
	})
	if err != nil {
		return nil, err
	}

	scheduler, err := engine.NewScheduler(&engine.SchedulerConfig{
		DiceRoller: dice.DefaultRoller,
	})
	if err != nil {
		return nil, err
	}

	return combatorch.NewOrchestrator(&combatorch.Config{
		Repo:              repo,
		Lock:              locks,
		Limiter:           limiter,
		Resolver:          resolver,
		Scheduler:         scheduler,
		Rewards:           engine.NewRewardCalculator(&engine.RewardConfig{}),
		Stats:             stub,
		Bonus:             stub,
		Broadcaster:       stub,
		RewardSink:        stub,
		Clock:             clk,
		IDGenerator:       idgen.NewUUID("combat"),
		ActionRateWindow:  cfg.ActionRateWindow,
		ActionRateMax:     cfg.ActionRateMax,
		RateLimitFailOpen: cfg.RateLimitFailOpen,
	})
}

// runEncounter drives a two-fighter duel to completion with plain attacks
func runEncounter(ctx context.Context, svc combatorch.Service) error {
	created, err := svc.CreateSession(ctx, &combatorch.CreateSessionInput{
		Type:      combat.SessionTypeDuel,
		ZoneID:    "smoke-test",
		CreatedBy: "simulator",
	})
	if err != nil {
		return err
	}
	sessionID := created.Session.ID

	fighters := []string{"fighter-a", "fighter-b"}
	for _, actorID := range fighters {
		if _, err := svc.JoinSession(ctx, &combatorch.JoinSessionInput{
			SessionID: sessionID,
			ActorID:   actorID,
			Kind:      combat.ParticipantKindPlayer,
		}); err != nil {
			return err
		}
	}

	activated, err := svc.ActivateSession(ctx, &combatorch.ActivateSessionInput{SessionID: sessionID})
	if err != nil {
		return err
	}
	session := activated.Session

	for i := 0; i < simulateTurns && !session.IsTerminal(); i++ {
		actorID := session.CurrentActorID()
		targetID := fighters[0]
		if targetID == actorID {
			targetID = fighters[1]
		}

		out, err := svc.SubmitAction(ctx, &combatorch.SubmitActionInput{
			SessionID: sessionID,
			ActorID:   actorID,
			Request: &engine.ActionRequest{
				Kind:              combat.ActionAttack,
				Name:              "shortsword",
				TargetID:          targetID,
				WeaponCoefficient: 1.0,
			},
		})
		if err != nil {
			if combat.IsKind(err, combat.ErrKindRateLimited) {
				slog.Info("rate limited, ending simulation early", "actor_id", actorID)
				break
			}
			return err
		}
		session = out.Session
	}

	listed, err := svc.ListActions(ctx, &combatorch.ListActionsInput{SessionID: sessionID})
	if err != nil {
		return err
	}
	for _, a := range listed.Actions {
		fmt.Println(a.Description)
	}
	fmt.Printf("status=%s winner=%s actions=%d\n", session.Status, session.WinnerID, len(listed.Actions))

	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// localWorld satisfies every external dependency with fixed answers so the
// simulation needs no other services running.
type localWorld struct{}

func (w *localWorld) GetBonusPercent(_ context.Context, _, _ string) (float64, error) {
	return 10, nil
}

func (w *localWorld) AwardCombatExperience(_ context.Context, _ external.AwardExperienceInput) error {
	return nil
}

func (w *localWorld) GetCombatStats(_ context.Context, _ string) (*combat.Stats, error) {
	return &combat.Stats{
		Level:        10,
		MaxHP:        120,
		MaxMP:        40,
		Strength:     35,
		Vitality:     20,
		Dexterity:    25,
		Intelligence: 15,
		Wisdom:       15,
	}, nil
}

func (w *localWorld) Notify(_ context.Context, _ string, _ external.EventKind, _ interface{}) error {
	return nil
}

func (w *localWorld) AwardRewards(_ context.Context, _ external.RewardGrant) error {
	return nil
}
