package combat

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind identifies a caller-facing combat outcome. These are expected
// results of submitting an action, not crashes; controller layers map them
// to user-facing messages.
type ErrorKind string

// Combat error kinds
const (
	ErrKindCombatNotFound   ErrorKind = "combat_not_found"
	ErrKindCombatEnded      ErrorKind = "combat_ended"
	ErrKindNotYourTurn      ErrorKind = "not_your_turn"
	ErrKindNotParticipant   ErrorKind = "not_participant"
	ErrKindParticipantDead  ErrorKind = "participant_dead"
	ErrKindActionOnCooldown ErrorKind = "action_on_cooldown"
	ErrKindInsufficientMP   ErrorKind = "insufficient_mp"
	ErrKindInvalidTarget    ErrorKind = "invalid_target"
	ErrKindTargetDead       ErrorKind = "target_dead"
	ErrKindAlreadyInCombat  ErrorKind = "already_in_combat"
	ErrKindLockNotAcquired  ErrorKind = "lock_not_acquired"
	ErrKindRateLimited      ErrorKind = "rate_limited"
)

// Error is a typed combat outcome. Kind is always set; the remaining fields
// are populated only where the kind calls for them (cooldown remainder,
// required MP, rate-limit reset).
type Error struct {
	Kind              ErrorKind
	Message           string
	RemainingCooldown time.Duration
	RequiredMP        int
	ResetTime         time.Time
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches combat errors by kind so errors.Is works across wrapping
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Kind == targetErr.Kind
	}
	return false
}

// AsError extracts a combat error from an error chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a combat error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// ErrCombatNotFound indicates the session does not exist
func ErrCombatNotFound(sessionID string) *Error {
	return &Error{
		Kind:    ErrKindCombatNotFound,
		Message: fmt.Sprintf("combat session %s not found", sessionID),
	}
}

// ErrCombatEnded indicates the session is not accepting actions
func ErrCombatEnded(sessionID string, status SessionStatus) *Error {
	return &Error{
		Kind:    ErrKindCombatEnded,
		Message: fmt.Sprintf("combat session %s is %s", sessionID, status),
	}
}

// ErrNotYourTurn indicates another participant holds the current turn
func ErrNotYourTurn(actorID, currentActorID string) *Error {
	return &Error{
		Kind:    ErrKindNotYourTurn,
		Message: fmt.Sprintf("it is %s's turn, not %s's", currentActorID, actorID),
	}
}

// ErrNotParticipant indicates the actor is not in the session
func ErrNotParticipant(actorID string) *Error {
	return &Error{
		Kind:    ErrKindNotParticipant,
		Message: fmt.Sprintf("%s is not a participant in this combat", actorID),
	}
}

// ErrParticipantDead indicates the actor can no longer act
func ErrParticipantDead(actorID string, status ParticipantStatus) *Error {
	return &Error{
		Kind:    ErrKindParticipantDead,
		Message: fmt.Sprintf("%s is %s and cannot act", actorID, status),
	}
}

// ErrActionOnCooldown carries how long until the action kind is usable again
func ErrActionOnCooldown(kind ActionKind, remaining time.Duration) *Error {
	return &Error{
		Kind:              ErrKindActionOnCooldown,
		Message:           fmt.Sprintf("%s is on cooldown for another %s", kind, remaining),
		RemainingCooldown: remaining,
	}
}

// ErrInsufficientMP carries the MP the action would have required
func ErrInsufficientMP(required, current int) *Error {
	return &Error{
		Kind:       ErrKindInsufficientMP,
		Message:    fmt.Sprintf("action requires %d MP, have %d", required, current),
		RequiredMP: required,
	}
}

// ErrInvalidTarget indicates the target is missing or not in the session
func ErrInvalidTarget(targetID string) *Error {
	return &Error{
		Kind:    ErrKindInvalidTarget,
		Message: fmt.Sprintf("target %s is not a valid participant", targetID),
	}
}

// ErrTargetDead indicates the target can no longer be targeted
func ErrTargetDead(targetID string) *Error {
	return &Error{
		Kind:    ErrKindTargetDead,
		Message: fmt.Sprintf("target %s is dead", targetID),
	}
}

// ErrAlreadyInCombat indicates the actor is in another active session
func ErrAlreadyInCombat(actorID, sessionID string) *Error {
	return &Error{
		Kind:    ErrKindAlreadyInCombat,
		Message: fmt.Sprintf("%s is already in combat session %s", actorID, sessionID),
	}
}

// ErrLockNotAcquired indicates the per-session lock could not be taken
func ErrLockNotAcquired(resource string) *Error {
	return &Error{
		Kind:    ErrKindLockNotAcquired,
		Message: fmt.Sprintf("could not acquire lock on %s", resource),
	}
}

// ErrRateLimited carries when the limit next frees a slot
func ErrRateLimited(resetTime time.Time) *Error {
	return &Error{
		Kind:      ErrKindRateLimited,
		Message:   fmt.Sprintf("too many actions, retry after %s", resetTime.Format(time.RFC3339)),
		ResetTime: resetTime,
	}
}
