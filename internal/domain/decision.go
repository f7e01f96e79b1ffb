package domain

import (
	"time"

	"github.com/google/uuid"
)

type DecisionKind string

const (
	DecisionNone          DecisionKind = "none"
	DecisionSendRules     DecisionKind = "send-rules-once"
	DecisionMoveToHolding DecisionKind = "move-to-holding"
	DecisionApplyTimeout  DecisionKind = "apply-timeout"
	DecisionMute          DecisionKind = "auto-mute"
	DecisionUnmute        DecisionKind = "auto-unmute"
)

// Decision es lo que el motor decidió bajo lock; quien la recibe ejecuta la
// acción remota y reporta el resultado con ConfirmAction(ID, err).
type Decision struct {
	ID        uuid.UUID
	Kind      DecisionKind
	User      UserID
	Username  string
	Duration  time.Duration
	Reason    string
	Violation int
	// NotifyDM: enviar el aviso único por DM junto al movimiento.
	NotifyDM bool
	At       time.Time
}

type TimeoutSource string

const (
	TimeoutByEngine    TimeoutSource = "engine"
	TimeoutByModerator TimeoutSource = "moderator"
)

type ActiveTimeout struct {
	User      UserID
	Username  string
	Start     time.Time
	End       time.Time
	Reason    string
	TimedBy   string
	TimedByID UserID
	Source    TimeoutSource
}

func (t ActiveTimeout) Remaining(now time.Time) time.Duration {
	if d := t.End.Sub(now); d > 0 {
		return d
	}
	return 0
}
