package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(mut func(*state.Config)) *state.Store {
	cfg := state.DefaultConfig()
	cfg.AutoMute = false
	cfg.SendRules = false
	if mut != nil {
		mut(&cfg)
	}
	return state.New(cfg, quietLog(), t0)
}

type fakeEnforcer struct {
	mu       sync.Mutex
	calls    []string
	failMove bool
	failDM   bool
}

func (f *fakeEnforcer) add(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeEnforcer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEnforcer) MoveToHolding(_ context.Context, u domain.UserID) error {
	if f.failMove {
		return errors.New("missing permissions")
	}
	f.add(fmt.Sprintf("move %d", u))
	return nil
}

func (f *fakeEnforcer) Timeout(_ context.Context, u domain.UserID, until time.Time, _ string) error {
	if until.IsZero() {
		f.add(fmt.Sprintf("untimeout %d", u))
		return nil
	}
	f.add(fmt.Sprintf("timeout %d %d", u, until.Unix()))
	return nil
}

func (f *fakeEnforcer) SetMuted(_ context.Context, u domain.UserID, muted bool) error {
	f.add(fmt.Sprintf("mute %d %v", u, muted))
	return nil
}

func (f *fakeEnforcer) SendDM(_ context.Context, u domain.UserID, _ string) error {
	if f.failDM {
		return errors.New("cannot send messages to this user")
	}
	f.add(fmt.Sprintf("dm %d", u))
	return nil
}

// fakeAudit devuelve la entrada a partir del intento número foundAfter.
// applied y banned responden aparte y no cuentan en calls.
type fakeAudit struct {
	mu         sync.Mutex
	entry      AuditEntry
	foundAfter int
	calls      int
	applied    *AuditEntry
	banned     bool
}

func (f *fakeAudit) lookup() (AuditEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.foundAfter > 0 && f.calls >= f.foundAfter {
		return f.entry, true, nil
	}
	return AuditEntry{}, false, nil
}

func (f *fakeAudit) FindKick(context.Context, domain.UserID, time.Time) (AuditEntry, bool, error) {
	return f.lookup()
}

func (f *fakeAudit) FindTimeoutApplied(context.Context, domain.UserID, time.Time) (AuditEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applied == nil {
		return AuditEntry{}, false, nil
	}
	return *f.applied, true, nil
}

func (f *fakeAudit) IsBanned(context.Context, domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned, nil
}

func (f *fakeAudit) FindTimeoutRemoval(context.Context, domain.UserID, time.Time) (AuditEntry, bool, error) {
	return f.lookup()
}

type fakeLedger struct {
	mu        sync.Mutex
	decisions []domain.Decision
	failures  int
	history   []domain.HistoryEvent
}

func (l *fakeLedger) AppendDecision(_ context.Context, d domain.Decision, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decisions = append(l.decisions, d)
	if err != nil {
		l.failures++
	}
	return nil
}

func (l *fakeLedger) AppendHistory(_ context.Context, ev domain.HistoryEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, ev)
	return nil
}
