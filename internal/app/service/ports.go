package service

import (
	"context"
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// Lo implementa internal/adapters/discord.Enforcer
type Enforcer interface {
	MoveToHolding(ctx context.Context, user domain.UserID) error
	// Timeout con until cero quita el timeout.
	Timeout(ctx context.Context, user domain.UserID, until time.Time, reason string) error
	// SetMuted aplica o quita server mute + deafen.
	SetMuted(ctx context.Context, user domain.UserID, muted bool) error
	SendDM(ctx context.Context, user domain.UserID, msg string) error
}

// Lo implementa internal/adapters/discord.AuditLog
type AuditLog interface {
	FindKick(ctx context.Context, user domain.UserID, since time.Time) (AuditEntry, bool, error)
	FindTimeoutApplied(ctx context.Context, user domain.UserID, since time.Time) (AuditEntry, bool, error)
	FindTimeoutRemoval(ctx context.Context, user domain.UserID, since time.Time) (AuditEntry, bool, error)
	// IsBanned consulta la lista de bans del server (no el audit log).
	IsBanned(ctx context.Context, user domain.UserID) (bool, error)
}

type AuditEntry struct {
	Moderator   string
	ModeratorID domain.UserID
	Reason      string
	At          time.Time
}

// Lo implementa internal/infra/storage.LedgerRepo (opcional, sólo escritura)
type Ledger interface {
	AppendDecision(ctx context.Context, d domain.Decision, actionErr error) error
	AppendHistory(ctx context.Context, ev domain.HistoryEvent) error
}

type nopLedger struct{}

func (nopLedger) AppendDecision(context.Context, domain.Decision, error) error { return nil }
func (nopLedger) AppendHistory(context.Context, domain.HistoryEvent) error     { return nil }
