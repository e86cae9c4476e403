package combat

import (
	"time"

	"github.com/KirkDiggler/combat-api/internal/engine"
	entities "github.com/KirkDiggler/combat-api/internal/entities/combat"
)

// CreateSessionInput defines the request for creating a combat session
type CreateSessionInput struct {
	Type      entities.SessionType
	ZoneID    string
	CreatedBy string
}

// CreateSessionOutput defines the response for creating a combat session
type CreateSessionOutput struct {
	Session *entities.Session
}

// JoinSessionInput defines the request for seeding a participant into a
// waiting session. Stats may be supplied directly for monsters and NPCs;
// when nil, the actor is treated as a player and stats come from the
// character stats provider.
type JoinSessionInput struct {
	SessionID string
	ActorID   string
	Kind      entities.ParticipantKind

	// Side is optional; empty auto-assigns to balance the sides
	Side     entities.Side
	Position entities.Position
	Stats    *entities.Stats
}

// JoinSessionOutput defines the response for joining a session
type JoinSessionOutput struct {
	Participant *entities.Participant
}

// ActivateSessionInput defines the request for activating a session
type ActivateSessionInput struct {
	SessionID string
}

// ActivateSessionOutput defines the response for activating a session
type ActivateSessionOutput struct {
	Session      *entities.Session
	Participants []*entities.Participant
}

// SubmitActionInput defines one action submission
type SubmitActionInput struct {
	SessionID string
	ActorID   string
	Request   *engine.ActionRequest
}

// SubmitActionOutput defines the result of a resolved action
type SubmitActionOutput struct {
	Session *entities.Session
	Action  *entities.Action
	Outcome *engine.ActionOutcome

	// Rewards is set only when this action ended the combat with a winner
	Rewards *entities.Rewards
}

// GetSessionInput defines the request for reading a session
type GetSessionInput struct {
	SessionID string
}

// GetSessionOutput defines the response for reading a session
type GetSessionOutput struct {
	Session      *entities.Session
	Participants []*entities.Participant
}

// ListActionsInput defines the request for reading the action log
type ListActionsInput struct {
	SessionID string
}

// ListActionsOutput defines the action log in append order
type ListActionsOutput struct {
	Actions []*entities.Action
}

// CancelSessionInput defines the request for cancelling a session
type CancelSessionInput struct {
	SessionID string
}

// CancelSessionOutput defines the response for cancelling a session
type CancelSessionOutput struct {
	Session *entities.Session
}

// SessionStartPayload is broadcast when a session activates
type SessionStartPayload struct {
	Session      *entities.Session        `json:"session"`
	Participants []*entities.Participant  `json:"participants"`
}

// ActionPayload is broadcast after every resolved action
type ActionPayload struct {
	Action        *entities.Action `json:"action"`
	CurrentTurn   string           `json:"current_turn"`
	TurnNumber    int              `json:"turn_number"`
	SessionStatus string           `json:"session_status"`
}

// ParticipantSummary is one row of the end-of-combat statistics
type ParticipantSummary struct {
	ActorID     string `json:"actor_id"`
	Side        string `json:"side"`
	Status      string `json:"status"`
	DamageDealt int    `json:"damage_dealt"`
	DamageTaken int    `json:"damage_taken"`
	ActionsUsed int    `json:"actions_used"`
}

// SessionEndPayload is broadcast when a session reaches a terminal status
type SessionEndPayload struct {
	SessionID string               `json:"session_id"`
	Status    string               `json:"status"`
	WinnerID  string               `json:"winner_id,omitempty"`
	Duration  time.Duration        `json:"duration"`
	Rewards   *entities.Rewards    `json:"rewards,omitempty"`
	Summary   []ParticipantSummary `json:"summary"`
}
