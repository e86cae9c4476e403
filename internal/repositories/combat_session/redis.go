package combatsession

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/combat-api/internal/entities/combat"
	"github.com/KirkDiggler/combat-api/internal/errors"
	"github.com/KirkDiggler/combat-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/combat-api/internal/redis"
)

const (
	// Key patterns:
	//   combat:session:{id}                         session record
	//   combat:session:{id}:participant:{actor_id}  participant row
	//   combat:session:{id}:actions                 action log (list)
	//   combat:actor:{actor_id}:session             actor index
	sessionKeyPrefix = "combat:session:"
	actorKeyPrefix   = "combat:actor:"

	// Terminal sessions stay readable for a day before Redis reclaims them
	defaultTTL = 24 * time.Hour

	errSessionNil     = "session cannot be nil"
	errSessionIDEmpty = "session ID cannot be empty"
	errActorIDEmpty   = "actor ID cannot be empty"
)

// sessionRecord is the stored shape of a session plus the actor IDs needed
// to load its participant rows in join order.
type sessionRecord struct {
	Session  *combat.Session `json:"session"`
	ActorIDs []string        `json:"actor_ids"`
}

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock

	// TTL bounds how long session keys live; zero uses the default
	TTL time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Client == nil {
		vb.RequiredField("Client")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	return vb.Build()
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
	ttl    time.Duration
}

// NewRedisRepository creates a new Redis repository for combat sessions
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
		ttl:    ttl,
	}, nil
}

var _ Repository = (*redisRepository)(nil)

// CreateSession stores a new session in waiting status
func (r *redisRepository) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionOutput, error) {
	if input.Session == nil {
		return nil, errors.InvalidArgument(errSessionNil)
	}
	if input.Session.ID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	record := &sessionRecord{Session: input.Session}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}

	key := r.sessionKey(input.Session.ID)
	ok, err := r.client.SetNX(ctx, key, data, r.ttl).Result()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to store session")
	}
	if !ok {
		return nil, errors.AlreadyExists(fmt.Sprintf("session %s already exists", input.Session.ID))
	}

	return &CreateSessionOutput{Session: input.Session}, nil
}

// GetSession retrieves a session and its participants
func (r *redisRepository) GetSession(ctx context.Context, input GetSessionInput) (*GetSessionOutput, error) {
	if input.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	record, err := r.getRecord(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	participants := make([]*combat.Participant, 0, len(record.ActorIDs))
	if len(record.ActorIDs) > 0 {
		keys := make([]string, len(record.ActorIDs))
		for i, actorID := range record.ActorIDs {
			keys[i] = r.participantKey(input.SessionID, actorID)
		}

		values, mgetErr := r.client.MGet(ctx, keys...).Result()
		if mgetErr != nil {
			return nil, errors.WrapWithCode(mgetErr, errors.CodeUnavailable, "failed to load participants")
		}

		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				return nil, errors.Internalf("participant %s missing for session %s",
					record.ActorIDs[i], input.SessionID)
			}

			var p combat.Participant
			if unmarshalErr := json.Unmarshal([]byte(raw), &p); unmarshalErr != nil {
				return nil, errors.Wrapf(unmarshalErr, "failed to unmarshal participant %s", record.ActorIDs[i])
			}
			participants = append(participants, &p)
		}
	}

	return &GetSessionOutput{
		Session:      record.Session,
		Participants: participants,
	}, nil
}

// AddParticipant seeds a participant into a waiting session
func (r *redisRepository) AddParticipant(ctx context.Context, input AddParticipantInput) (*AddParticipantOutput, error) {
	p := input.Participant
	if p == nil {
		return nil, errors.InvalidArgument("participant cannot be nil")
	}
	if p.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}
	if p.ActorID == "" {
		return nil, errors.InvalidArgument(errActorIDEmpty)
	}

	record, err := r.getRecord(ctx, p.SessionID)
	if err != nil {
		return nil, err
	}

	for _, actorID := range record.ActorIDs {
		if actorID == p.ActorID {
			return nil, errors.AlreadyExists(fmt.Sprintf("actor %s already joined session %s", p.ActorID, p.SessionID))
		}
	}
	record.ActorIDs = append(record.ActorIDs, p.ActorID)
	record.Session.UpdatedAt = r.clock.Now()

	recordData, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}
	participantData, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal participant")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(p.SessionID), recordData, r.ttl)
	pipe.Set(ctx, r.participantKey(p.SessionID, p.ActorID), participantData, r.ttl)
	pipe.Set(ctx, r.actorKey(p.ActorID), p.SessionID, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to add participant")
	}

	return &AddParticipantOutput{Participant: p}, nil
}

// UpdateSession replaces session state
func (r *redisRepository) UpdateSession(ctx context.Context, input UpdateSessionInput) (*UpdateSessionOutput, error) {
	if input.Session == nil {
		return nil, errors.InvalidArgument(errSessionNil)
	}
	if input.Session.ID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	record, err := r.getRecord(ctx, input.Session.ID)
	if err != nil {
		return nil, err
	}

	record.Session = input.Session
	record.Session.UpdatedAt = r.clock.Now()

	recordData, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(input.Session.ID), recordData, r.ttl)
	for _, p := range input.Participants {
		participantData, marshalErr := json.Marshal(p)
		if marshalErr != nil {
			return nil, errors.Wrapf(marshalErr, "failed to marshal participant %s", p.ActorID)
		}
		pipe.Set(ctx, r.participantKey(input.Session.ID, p.ActorID), participantData, r.ttl)
	}
	if input.ClearActorIndexes {
		for _, actorID := range record.ActorIDs {
			pipe.Del(ctx, r.actorKey(actorID))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to update session")
	}

	return &UpdateSessionOutput{Session: input.Session}, nil
}

// ApplyAction atomically persists one action's effects
func (r *redisRepository) ApplyAction(ctx context.Context, input ApplyActionInput) (*ApplyActionOutput, error) {
	if input.Session == nil {
		return nil, errors.InvalidArgument(errSessionNil)
	}
	if input.Action == nil {
		return nil, errors.InvalidArgument("action cannot be nil")
	}

	record, err := r.getRecord(ctx, input.Session.ID)
	if err != nil {
		return nil, err
	}

	record.Session = input.Session
	record.Session.UpdatedAt = r.clock.Now()

	recordData, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}
	actionData, err := json.Marshal(input.Action)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal action")
	}

	// All keys mutate in one MULTI/EXEC block: either every effect of this
	// action becomes visible or none does.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(input.Session.ID), recordData, r.ttl)

	for _, p := range input.Participants {
		participantData, marshalErr := json.Marshal(p)
		if marshalErr != nil {
			return nil, errors.Wrapf(marshalErr, "failed to marshal participant %s", p.ActorID)
		}
		pipe.Set(ctx, r.participantKey(input.Session.ID, p.ActorID), participantData, r.ttl)
	}

	actionsKey := r.actionsKey(input.Session.ID)
	pipe.RPush(ctx, actionsKey, actionData)
	pipe.Expire(ctx, actionsKey, r.ttl)

	if input.SessionEnded {
		for _, actorID := range record.ActorIDs {
			pipe.Del(ctx, r.actorKey(actorID))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to apply action")
	}

	return &ApplyActionOutput{Action: input.Action}, nil
}

// ListActions returns the append-only action log
func (r *redisRepository) ListActions(ctx context.Context, input ListActionsInput) (*ListActionsOutput, error) {
	if input.SessionID == "" {
		return nil, errors.InvalidArgument(errSessionIDEmpty)
	}

	raw, err := r.client.LRange(ctx, r.actionsKey(input.SessionID), 0, -1).Result()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to list actions")
	}

	actions := make([]*combat.Action, 0, len(raw))
	for _, entry := range raw {
		var action combat.Action
		if err := json.Unmarshal([]byte(entry), &action); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal action")
		}
		actions = append(actions, &action)
	}

	return &ListActionsOutput{Actions: actions}, nil
}

// GetActorSession returns the active session an actor is in
func (r *redisRepository) GetActorSession(ctx context.Context, input GetActorSessionInput) (*GetActorSessionOutput, error) {
	if input.ActorID == "" {
		return nil, errors.InvalidArgument(errActorIDEmpty)
	}

	sessionID, err := r.client.Get(ctx, r.actorKey(input.ActorID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("actor %s is not in combat", input.ActorID)
		}
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to look up actor session")
	}

	return &GetActorSessionOutput{SessionID: sessionID}, nil
}

func (r *redisRepository) getRecord(ctx context.Context, sessionID string) (*sessionRecord, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("combat session %s not found", sessionID)
		}
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to get session")
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal session")
	}
	return &record, nil
}

func (r *redisRepository) sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *redisRepository) participantKey(sessionID, actorID string) string {
	return fmt.Sprintf("%s%s:participant:%s", sessionKeyPrefix, sessionID, actorID)
}

func (r *redisRepository) actionsKey(sessionID string) string {
	return fmt.Sprintf("%s%s:actions", sessionKeyPrefix, sessionID)
}

func (r *redisRepository) actorKey(actorID string) string {
	return fmt.Sprintf("%s%s:session", actorKeyPrefix, actorID)
}
