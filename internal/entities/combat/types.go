// Package combat defines the entities of the combat core: sessions,
// participants, the append-only action log, and the caller-facing error
// taxonomy.
package combat

import (
	"time"
)

// SessionType identifies the kind of encounter
type SessionType string

// Session types
const (
	SessionTypePvE   SessionType = "pve"
	SessionTypePvP   SessionType = "pvp"
	SessionTypeBoss  SessionType = "boss"
	SessionTypeArena SessionType = "arena"
	SessionTypeDuel  SessionType = "duel"
)

// SessionStatus is the lifecycle state of a session
type SessionStatus string

// Session statuses. Ended and Cancelled are terminal.
const (
	SessionStatusWaiting   SessionStatus = "waiting"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusEnded     SessionStatus = "ended"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// ParticipantKind classifies who is fighting
type ParticipantKind string

// Participant kinds
const (
	ParticipantKindPlayer  ParticipantKind = "player"
	ParticipantKindMonster ParticipantKind = "monster"
	ParticipantKindNPC     ParticipantKind = "npc"
	ParticipantKindBoss    ParticipantKind = "boss"
)

// Side groups participants for victory detection
type Side string

// Sides
const (
	SideAttackers Side = "attackers"
	SideDefenders Side = "defenders"
	SideNeutral   Side = "neutral"
)

// ParticipantStatus is the lifecycle state of a participant
type ParticipantStatus string

// Participant statuses
const (
	ParticipantStatusAlive         ParticipantStatus = "alive"
	ParticipantStatusDead          ParticipantStatus = "dead"
	ParticipantStatusFled          ParticipantStatus = "fled"
	ParticipantStatusStunned       ParticipantStatus = "stunned"
	ParticipantStatusIncapacitated ParticipantStatus = "incapacitated"
)

// ActionKind is the category of a combat action
type ActionKind string

// Action kinds
const (
	ActionAttack  ActionKind = "attack"
	ActionSpell   ActionKind = "spell"
	ActionHeal    ActionKind = "heal"
	ActionDefend  ActionKind = "defend"
	ActionItem    ActionKind = "item"
	ActionSpecial ActionKind = "special"
	ActionFlee    ActionKind = "flee"
)

// Stats is the combat-relevant stat block of a participant, snapshotted from
// the character stats provider when the participant joins.
type Stats struct {
	Level        int `json:"level"`
	MaxHP        int `json:"max_hp"`
	MaxMP        int `json:"max_mp"`
	Strength     int `json:"strength"`
	Vitality     int `json:"vitality"`
	Dexterity    int `json:"dexterity"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
}

// Position is a participant's location on the battlefield
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StatusEffect is an active effect on a participant. RemainingTurns ticks
// down at the start of the affected participant's own turn, before their
// action resolves.
type StatusEffect struct {
	Kind           string  `json:"kind"`
	RemainingTurns int     `json:"remaining_turns"`
	Magnitude      float64 `json:"magnitude"`
	Source         string  `json:"source"`
}

// Session is one combat encounter. TurnOrder is fixed once the session
// activates and is always a permutation of the participant actor IDs present
// at activation.
type Session struct {
	ID               string        `json:"id"`
	Type             SessionType   `json:"type"`
	Status           SessionStatus `json:"status"`
	ZoneID           string        `json:"zone_id"`
	CreatedBy        string        `json:"created_by"`
	TurnOrder        []string      `json:"turn_order"`
	CurrentTurnIndex int           `json:"current_turn_index"`
	TurnNumber       int           `json:"turn_number"`
	WinnerID         string        `json:"winner_id,omitempty"`
	WinnerSide       Side          `json:"winner_side,omitempty"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the session can never transition again
func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusEnded || s.Status == SessionStatusCancelled
}

// CurrentActorID returns the actor whose turn it is, or "" before activation
func (s *Session) CurrentActorID() string {
	if len(s.TurnOrder) == 0 || s.CurrentTurnIndex < 0 || s.CurrentTurnIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.CurrentTurnIndex]
}

// Participant is one combatant in a session, keyed by actor ID within the
// session. Rows never outlive their session.
type Participant struct {
	ID          string                   `json:"id"`
	SessionID   string                   `json:"session_id"`
	ActorID     string                   `json:"actor_id"`
	Kind        ParticipantKind          `json:"kind"`
	Side        Side                     `json:"side"`
	Initiative  int                      `json:"initiative"`
	Position    Position                 `json:"position"`
	CurrentHP   int                      `json:"current_hp"`
	CurrentMP   int                      `json:"current_mp"`
	Stats       Stats                    `json:"stats"`
	Status      ParticipantStatus        `json:"status"`
	Effects     []StatusEffect           `json:"effects,omitempty"`
	Cooldowns   map[ActionKind]time.Time `json:"cooldowns,omitempty"`
	DamageDealt int                      `json:"damage_dealt"`
	DamageTaken int                      `json:"damage_taken"`
	ActionsUsed int                      `json:"actions_used"`
	JoinedAt    time.Time                `json:"joined_at"`
}

// Alive reports whether the participant can still act or be targeted
func (p *Participant) Alive() bool {
	return p.Status == ParticipantStatusAlive
}

// ApplyDamage reduces HP, clamping at zero; the participant dies exactly
// when HP reaches zero.
func (p *Participant) ApplyDamage(amount int) {
	if amount <= 0 {
		return
	}
	p.CurrentHP -= amount
	p.DamageTaken += amount
	if p.CurrentHP <= 0 {
		p.CurrentHP = 0
		p.Status = ParticipantStatusDead
	}
}

// ApplyHealing raises HP, clamping at the maximum
func (p *Participant) ApplyHealing(amount int) {
	if amount <= 0 {
		return
	}
	p.CurrentHP += amount
	if p.CurrentHP > p.Stats.MaxHP {
		p.CurrentHP = p.Stats.MaxHP
	}
}

// SpendMP deducts mana; callers must have validated the cost first
func (p *Participant) SpendMP(cost int) {
	p.CurrentMP -= cost
	if p.CurrentMP < 0 {
		p.CurrentMP = 0
	}
}

// CooldownRemaining returns how long until the participant may use the given
// action kind again; zero or negative means ready.
func (p *Participant) CooldownRemaining(kind ActionKind, now time.Time) time.Duration {
	expiry, ok := p.Cooldowns[kind]
	if !ok {
		return 0
	}
	return expiry.Sub(now)
}

// SetCooldown records when the given action kind becomes usable again
func (p *Participant) SetCooldown(kind ActionKind, expiry time.Time) {
	if p.Cooldowns == nil {
		p.Cooldowns = make(map[ActionKind]time.Time)
	}
	p.Cooldowns[kind] = expiry
}

// AddEffect replaces an existing effect of the same kind or appends a new one
func (p *Participant) AddEffect(effect StatusEffect) {
	for i, e := range p.Effects {
		if e.Kind == effect.Kind {
			p.Effects[i] = effect
			return
		}
	}
	p.Effects = append(p.Effects, effect)
}

// TickEffects decrements effect durations by one turn and drops expired ones
func (p *Participant) TickEffects() {
	if len(p.Effects) == 0 {
		return
	}
	kept := p.Effects[:0]
	for _, e := range p.Effects {
		e.RemainingTurns--
		if e.RemainingTurns > 0 {
			kept = append(kept, e)
		}
	}
	p.Effects = kept
}

// Action is one append-only entry in a session's action log. Immutable once
// written; the log is the audit trail behind combat statistics.
type Action struct {
	ID            string        `json:"id"`
	SessionID     string        `json:"session_id"`
	ActorID       string        `json:"actor_id"`
	TargetID      string        `json:"target_id,omitempty"`
	Kind          ActionKind    `json:"kind"`
	Name          string        `json:"name"`
	Damage        int           `json:"damage"`
	Healing       int           `json:"healing"`
	MPCost        int           `json:"mp_cost"`
	Critical      bool          `json:"critical"`
	Blocked       bool          `json:"blocked"`
	Missed        bool          `json:"missed"`
	EffectApplied *StatusEffect `json:"effect_applied,omitempty"`
	Description   string        `json:"description"`
	TurnNumber    int           `json:"turn_number"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Rewards is the victory payout computed by the reward calculator
type Rewards struct {
	Experience int      `json:"experience"`
	Gold       int      `json:"gold"`
	Items      []string `json:"items"`
}
