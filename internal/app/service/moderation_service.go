package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

const defaultViolationNotice = "📷 Fuiste movido fuera del canal por tener la cámara apagada más de lo permitido. " +
	"La próxima vez será un timeout."

type ModerationOptions struct {
	RulesMessage    string
	NoticeMessage   string
	EnforceInterval time.Duration
	// ActionRate/ActionBurst limitan las llamadas a Discord en ráfagas de infracciones.
	ActionRate  rate.Limit
	ActionBurst int
}

// ModerationService ejecuta las decisiones del store contra Discord. El store
// decide bajo lock; acá se hace el I/O y se reporta el resultado.
type ModerationService struct {
	store    *state.Store
	enforcer Enforcer
	ledger   Ledger
	limiter  *rate.Limiter
	opts     ModerationOptions
	log      *slog.Logger
	now      func() time.Time
}

func NewModerationService(store *state.Store, enforcer Enforcer, ledger Ledger, opts ModerationOptions, log *slog.Logger) *ModerationService {
	if ledger == nil {
		ledger = nopLedger{}
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.EnforceInterval <= 0 {
		opts.EnforceInterval = 5 * time.Second
	}
	if opts.ActionRate == 0 {
		opts.ActionRate = rate.Every(250 * time.Millisecond)
	}
	if opts.ActionBurst <= 0 {
		opts.ActionBurst = 5
	}
	if opts.NoticeMessage == "" {
		opts.NoticeMessage = defaultViolationNotice
	}
	return &ModerationService{
		store:    store,
		enforcer: enforcer,
		ledger:   ledger,
		limiter:  rate.NewLimiter(opts.ActionRate, opts.ActionBurst),
		opts:     opts,
		log:      log.With("component", "moderation"),
		now:      time.Now,
	}
}

// HandlePresence es el punto de entrada de cada VoiceStateUpdate.
func (m *ModerationService) HandlePresence(ctx context.Context, p state.Presence) error {
	ds, err := m.store.OnPresenceChanged(p, m.now())
	if err != nil {
		return err
	}
	openSessions.Set(float64(m.store.OpenSessions()))
	m.Apply(ctx, ds)
	return nil
}

// Run revisa las gracias vencidas cada EnforceInterval hasta que ctx se cancele.
func (m *ModerationService) Run(ctx context.Context) error {
	t := time.NewTicker(m.opts.EnforceInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			m.Tick(ctx)
		}
	}
}

// Tick dispara las infracciones vencidas y cierra los timeouts que expiraron solos.
func (m *ModerationService) Tick(ctx context.Context) int {
	now := m.now()
	ds := m.store.EscalateDue(now)
	if len(ds) > 0 {
		violationsFired.Add(float64(len(ds)))
		m.Apply(ctx, ds)
	}

	for _, t := range m.store.ExpiredTimeouts(now) {
		if _, ok := m.store.RemoveTimeout(t.User, state.Remover{}, now); ok {
			m.appendHistory(ctx, domain.HistoryEvent{
				Kind: domain.HistoryUntimeout, User: t.User, Username: t.Username, At: now,
				Moderator: domain.SystemModerator, Reason: "Timeout expirado naturalmente",
			})
		}
	}
	return len(ds)
}

// Apply ejecuta cada decisión y la confirma en el store. Los fallos se
// registran, no se reintentan.
func (m *ModerationService) Apply(ctx context.Context, ds []domain.Decision) {
	for _, d := range ds {
		if d.Kind == domain.DecisionNone {
			continue
		}
		if err := m.limiter.Wait(ctx); err != nil {
			m.log.Warn("action skipped", "kind", d.Kind, "user", d.User, "err", err)
			_ = m.store.ConfirmAction(d.ID, err)
			continue
		}

		err := m.execute(ctx, d)
		decisionsApplied.WithLabelValues(string(d.Kind)).Inc()
		if err != nil {
			actionFailures.WithLabelValues(string(d.Kind)).Inc()
		} else {
			m.log.Info("action applied", "kind", d.Kind, "user", d.User, "violation", d.Violation)
		}
		if cerr := m.store.ConfirmAction(d.ID, err); cerr != nil && !errors.Is(cerr, domain.ErrUnknownDecision) {
			m.log.Error("confirm action", "err", cerr)
		}
		if lerr := m.ledger.AppendDecision(ctx, d, err); lerr != nil {
			ledgerErrors.Inc()
			m.log.Warn("ledger append", "err", lerr)
		}
	}
}

func (m *ModerationService) execute(ctx context.Context, d domain.Decision) error {
	switch d.Kind {
	case domain.DecisionSendRules:
		if m.opts.RulesMessage == "" {
			return nil
		}
		return m.enforcer.SendDM(ctx, d.User, m.opts.RulesMessage)

	case domain.DecisionMoveToHolding:
		if err := m.enforcer.MoveToHolding(ctx, d.User); err != nil {
			return fmt.Errorf("move: %w", err)
		}
		if d.NotifyDM {
			if err := m.enforcer.SendDM(ctx, d.User, m.opts.NoticeMessage); err != nil {
				// el movimiento sí ocurrió; sólo dejamos de intentar DMs
				m.store.MarkDMFailed(d.User)
				m.log.Info("dm failed, notices disabled", "user", d.User, "err", err)
			}
		}
		return nil

	case domain.DecisionApplyTimeout:
		return m.enforcer.Timeout(ctx, d.User, d.At.Add(d.Duration), d.Reason)

	case domain.DecisionMute:
		return m.enforcer.SetMuted(ctx, d.User, true)

	case domain.DecisionUnmute:
		return m.enforcer.SetMuted(ctx, d.User, false)
	}
	return fmt.Errorf("unknown decision kind %q", d.Kind)
}

func (m *ModerationService) SetModeration(ctx context.Context, active bool) (string, error) {
	ds, err := m.store.SetModerationActive(active, m.now())
	if errors.Is(err, state.ErrModerationLocked) {
		return "🔒 La moderación de cámaras está deshabilitada permanentemente en la configuración.", nil
	}
	if err != nil {
		return "", err
	}
	m.Apply(ctx, ds)
	if active {
		return "✅ Moderación de cámaras **activada**.", nil
	}
	return fmt.Sprintf("⏸️ Moderación de cámaras **desactivada**. Des-muteados: %d.", len(ds)), nil
}

func (m *ModerationService) SetHush(ctx context.Context, active bool) string {
	ds := m.store.SetHush(active, m.now())
	m.Apply(ctx, ds)
	if active {
		return "🤫 Hush activo: encender la cámara ya no des-mutea."
	}
	return fmt.Sprintf("🔊 Hush desactivado. Des-muteados: %d.", len(ds))
}

// RemoveAllTimeouts quita en Discord todos los timeouts activos y registra
// cada untimeout como manual.
func (m *ModerationService) RemoveAllTimeouts(ctx context.Context, by state.Remover) (string, error) {
	active := m.store.QueryTimedOut(m.now())
	if len(active) == 0 {
		return "ℹ️ No hay timeouts activos.", nil
	}

	removed, failed := 0, 0
	for _, t := range active {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", err
		}
		if err := m.enforcer.Timeout(ctx, t.User, time.Time{}, "Quitado por "+by.Name); err != nil {
			failed++
			m.log.Warn("remove timeout", "user", t.User, "err", err)
			continue
		}
		if _, ok := m.store.RemoveTimeout(t.User, by, m.now()); ok {
			removed++
			m.appendHistory(ctx, domain.HistoryEvent{
				Kind: domain.HistoryUntimeout, User: t.User, Username: t.Username, At: m.now(),
				Moderator: by.Name, ModeratorID: by.ID, Reason: "Quitado manualmente por " + by.Name,
			})
		}
	}
	msg := fmt.Sprintf("✅ Timeouts quitados: %d.", removed)
	if failed > 0 {
		msg += fmt.Sprintf(" ⚠️ Fallaron: %d.", failed)
	}
	return msg, nil
}

// ResetStats limpia estadísticas y reabre sesiones para los presentes.
func (m *ModerationService) ResetStats(present []state.PresentUser) string {
	m.store.ResetStats(m.now(), present)
	openSessions.Set(float64(m.store.OpenSessions()))
	return fmt.Sprintf("🧹 Estadísticas reiniciadas. Sesiones reabiertas: %d.", len(present))
}

func (m *ModerationService) appendHistory(ctx context.Context, ev domain.HistoryEvent) {
	if err := m.ledger.AppendHistory(ctx, ev); err != nil {
		ledgerErrors.Inc()
		m.log.Warn("ledger history", "err", err)
	}
}
