// Package combatsession provides the repository interface and types for
// combat session storage: sessions, participants, and the append-only
// action log.
package combatsession

import (
	"context"

	"github.com/KirkDiggler/combat-api/internal/entities/combat"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=combatsessionmock github.com/KirkDiggler/combat-api/internal/repositories/combat_session Repository

// CreateSessionInput contains parameters for creating a session
type CreateSessionInput struct {
	Session *combat.Session
}

// CreateSessionOutput contains the result of creating a session
type CreateSessionOutput struct {
	Session *combat.Session
}

// GetSessionInput contains parameters for retrieving a session
type GetSessionInput struct {
	SessionID string
}

// GetSessionOutput contains a session and its participants in join order
type GetSessionOutput struct {
	Session      *combat.Session
	Participants []*combat.Participant
}

// AddParticipantInput contains parameters for seeding a participant
type AddParticipantInput struct {
	Participant *combat.Participant
}

// AddParticipantOutput contains the result of seeding a participant
type AddParticipantOutput struct {
	Participant *combat.Participant
}

// UpdateSessionInput contains parameters for replacing session state.
// Participants, when set, rewrites those rows in the same atomic write
// (activation stamps initiative on every row). ClearActorIndexes removes
// the actor-to-session index entries for every participant, used when the
// session reaches a terminal status.
type UpdateSessionInput struct {
	Session           *combat.Session
	Participants      []*combat.Participant
	ClearActorIndexes bool
}

// UpdateSessionOutput contains the result of updating a session
type UpdateSessionOutput struct {
	Session *combat.Session
}

// ApplyActionInput contains one resolved action's full effect: the updated
// session, every participant the action mutated, and the log entry. The
// write is all-or-nothing.
type ApplyActionInput struct {
	Session      *combat.Session
	Participants []*combat.Participant
	Action       *combat.Action

	// SessionEnded removes the actor-to-session index entries as part of
	// the same atomic write
	SessionEnded bool
}

// ApplyActionOutput contains the result of applying an action
type ApplyActionOutput struct {
	Action *combat.Action
}

// ListActionsInput contains parameters for reading the action log
type ListActionsInput struct {
	SessionID string
}

// ListActionsOutput contains the action log in append order
type ListActionsOutput struct {
	Actions []*combat.Action
}

// GetActorSessionInput contains parameters for the actor index lookup
type GetActorSessionInput struct {
	ActorID string
}

// GetActorSessionOutput contains the session an actor is currently in
type GetActorSessionOutput struct {
	SessionID string
}

// Repository defines combat session storage. All session mutations are
// expected to run under the per-session lock; the repository's job is
// atomicity of each write, not serialization of writers.
type Repository interface {
	// CreateSession stores a new session in waiting status
	CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionOutput, error)

	// GetSession retrieves a session and its participants
	GetSession(ctx context.Context, input GetSessionInput) (*GetSessionOutput, error)

	// AddParticipant seeds a participant into a waiting session and
	// records the actor-to-session index entry
	AddParticipant(ctx context.Context, input AddParticipantInput) (*AddParticipantOutput, error)

	// UpdateSession replaces session state (activation, cancellation)
	UpdateSession(ctx context.Context, input UpdateSessionInput) (*UpdateSessionOutput, error)

	// ApplyAction atomically persists one action's effects: session,
	// mutated participants, and the appended log entry
	ApplyAction(ctx context.Context, input ApplyActionInput) (*ApplyActionOutput, error)

	// ListActions returns the append-only action log
	ListActions(ctx context.Context, input ListActionsInput) (*ListActionsOutput, error)

	// GetActorSession returns the active session an actor is in, or
	// NotFound when the actor is free
	GetActorSession(ctx context.Context, input GetActorSessionInput) (*GetActorSessionOutput, error)
}
