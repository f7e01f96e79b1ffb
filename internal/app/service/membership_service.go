package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

// unknownModerator se muestra cuando el audit log no dice quién aplicó el timeout.
const unknownModerator = "moderador"

var errBannedMeanwhile = errors.New("member banned while waiting for audit log")

// Member es lo mínimo que necesitamos de un miembro del server.
type Member struct {
	User        domain.UserID
	Username    string
	DisplayName string
	Roles       []string
}

type MembershipOptions struct {
	// AuditWait es la espera máxima para que aparezca la entrada del audit log.
	AuditWait time.Duration
	AuditPoll time.Duration
}

// MembershipService clasifica joins/removes/bans/timeouts y los deja en el historial.
// El audit log llega tarde respecto del gateway; kick y untimeout se confirman
// con una espera acotada y un fallback explícito.
type MembershipService struct {
	store  *state.Store
	audit  AuditLog
	ledger Ledger
	opts   MembershipOptions
	log    *slog.Logger
	now    func() time.Time
}

func NewMembershipService(store *state.Store, audit AuditLog, ledger Ledger, opts MembershipOptions, log *slog.Logger) *MembershipService {
	if ledger == nil {
		ledger = nopLedger{}
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.AuditWait <= 0 {
		opts.AuditWait = 5 * time.Second
	}
	if opts.AuditPoll <= 0 {
		opts.AuditPoll = time.Second
	}
	return &MembershipService{
		store:  store,
		audit:  audit,
		ledger: ledger,
		opts:   opts,
		log:    log.With("component", "membership"),
		now:    time.Now,
	}
}

func (ms *MembershipService) Joined(ctx context.Context, m Member) error {
	return ms.record(ctx, domain.HistoryEvent{
		Kind: domain.HistoryJoin, User: m.User, Username: m.Username, DisplayName: m.DisplayName, At: ms.now(),
	})
}

// Removed clasifica una salida como kick o leave. Si el usuario acaba de ser
// baneado no se registra nada: el ban ya quedó en el historial.
// El evento de ban llega por otra goroutine, así que se vuelve a mirar después
// de la espera del audit log.
func (ms *MembershipService) Removed(ctx context.Context, m Member) (domain.HistoryKind, error) {
	at := ms.now()
	if ms.store.WasRecentlyBanned(m.User, at) {
		return domain.HistoryBan, nil
	}

	ev := domain.HistoryEvent{
		Kind: domain.HistoryLeave, User: m.User, Username: m.Username, DisplayName: m.DisplayName,
		At: at, Roles: m.Roles,
	}
	entry, kicked := ms.awaitAudit(ctx, func(ctx context.Context) (AuditEntry, bool, error) {
		if ms.store.WasRecentlyBanned(m.User, ms.now()) {
			return AuditEntry{}, false, errBannedMeanwhile
		}
		return ms.audit.FindKick(ctx, m.User, at.Add(-ms.opts.AuditWait))
	})
	if kicked {
		ev.Kind = domain.HistoryKick
		ev.Moderator = entry.Moderator
		ev.ModeratorID = entry.ModeratorID
		ev.Reason = entry.Reason
		return ev.Kind, ms.record(ctx, ev)
	}
	if ms.bannedNow(ctx, m.User) {
		return domain.HistoryBan, nil
	}
	return ev.Kind, ms.record(ctx, ev)
}

// bannedNow mira primero la marca en memoria y después la lista de bans.
func (ms *MembershipService) bannedNow(ctx context.Context, user domain.UserID) bool {
	if ms.store.WasRecentlyBanned(user, ms.now()) {
		return true
	}
	if ms.audit == nil {
		return false
	}
	banned, err := ms.audit.IsBanned(ctx, user)
	if err != nil {
		ms.log.Debug("ban lookup", "user", user, "err", err)
		return false
	}
	return banned
}

// MarkBanned deja la marca de ban antes de cualquier consulta lenta, para que
// un remove concurrente no lo registre como leave.
func (ms *MembershipService) MarkBanned(user domain.UserID) {
	ms.store.MarkBanned(user, ms.now())
}

func (ms *MembershipService) Banned(ctx context.Context, m Member, moderator AuditEntry) error {
	ms.MarkBanned(m.User)
	return ms.record(ctx, domain.HistoryEvent{
		Kind: domain.HistoryBan, User: m.User, Username: m.Username, DisplayName: m.DisplayName, At: ms.now(),
		Moderator: moderator.Moderator, ModeratorID: moderator.ModeratorID, Reason: moderator.Reason,
	})
}

func (ms *MembershipService) Unbanned(ctx context.Context, m Member, moderator AuditEntry) error {
	return ms.record(ctx, domain.HistoryEvent{
		Kind: domain.HistoryUnban, User: m.User, Username: m.Username, At: ms.now(),
		Moderator: moderator.Moderator, ModeratorID: moderator.ModeratorID, Reason: moderator.Reason,
	})
}

// TimeoutChanged recibe el communication_disabled_until de un member update.
// until en el futuro = timeout aplicado; nil o pasado = timeout quitado o vencido.
func (ms *MembershipService) TimeoutChanged(ctx context.Context, m Member, until *time.Time) {
	now := ms.now()
	if until != nil && until.After(now) {
		if cur, ok := ms.store.ActiveTimeout(m.User); ok && cur.End.After(now) {
			return
		}
		t := domain.ActiveTimeout{
			User: m.User, Username: m.Username, Start: now, End: *until, TimedBy: unknownModerator,
		}
		if entry, found := ms.awaitAudit(ctx, func(ctx context.Context) (AuditEntry, bool, error) {
			return ms.audit.FindTimeoutApplied(ctx, m.User, now.Add(-ms.opts.AuditWait))
		}); found {
			t.TimedBy, t.TimedByID, t.Reason = entry.Moderator, entry.ModeratorID, entry.Reason
		}
		if ms.store.ObserveTimeout(t, ms.now()) {
			ms.log.Info("timeout observed", "user", m.User, "until", until, "by", t.TimedBy)
		}
		return
	}

	t, ok := ms.store.ActiveTimeout(m.User)
	if !ok || !ms.store.BeginTimeoutRemoval(m.User, now) {
		return
	}
	defer ms.store.EndTimeoutRemoval(m.User)

	var by state.Remover
	if t.End.After(now) {
		// se quitó antes de tiempo: buscamos quién
		if entry, found := ms.awaitAudit(ctx, func(ctx context.Context) (AuditEntry, bool, error) {
			return ms.audit.FindTimeoutRemoval(ctx, m.User, now.Add(-ms.opts.AuditWait))
		}); found {
			by = state.Remover{Name: entry.Moderator, ID: entry.ModeratorID}
		}
	}
	if _, removed := ms.store.RemoveTimeout(m.User, by, ms.now()); removed {
		membershipEvents.WithLabelValues(string(domain.HistoryUntimeout)).Inc()
		ev := domain.HistoryEvent{Kind: domain.HistoryUntimeout, User: m.User, Username: m.Username, At: ms.now(), Moderator: domain.SystemModerator}
		if by.Name != "" {
			ev.Moderator, ev.ModeratorID = by.Name, by.ID
		}
		if err := ms.ledger.AppendHistory(ctx, ev); err != nil {
			ledgerErrors.Inc()
		}
	}
}

// awaitAudit consulta el audit log hasta encontrar la entrada o agotar AuditWait.
// errBannedMeanwhile corta la espera sin resultado.
func (ms *MembershipService) awaitAudit(ctx context.Context, find func(context.Context) (AuditEntry, bool, error)) (AuditEntry, bool) {
	if ms.audit == nil {
		return AuditEntry{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, ms.opts.AuditWait)
	defer cancel()

	t := time.NewTicker(ms.opts.AuditPoll)
	defer t.Stop()
	for {
		entry, ok, err := find(ctx)
		if errors.Is(err, errBannedMeanwhile) {
			return AuditEntry{}, false
		}
		if err != nil {
			ms.log.Debug("audit lookup", "err", err)
		}
		if ok {
			return entry, true
		}
		select {
		case <-ctx.Done():
			return AuditEntry{}, false
		case <-t.C:
		}
	}
}

func (ms *MembershipService) record(ctx context.Context, ev domain.HistoryEvent) error {
	if err := ms.store.RecordHistoryEvent(ev); err != nil {
		return err
	}
	membershipEvents.WithLabelValues(string(ev.Kind)).Inc()
	if err := ms.ledger.AppendHistory(ctx, ev); err != nil {
		ledgerErrors.Inc()
		ms.log.Warn("ledger history", "err", err)
	}
	return nil
}
