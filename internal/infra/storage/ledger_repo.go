package storage

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"

	pq "github.com/lib/pq"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// LedgerRepo deja constancia de decisiones e historial. Sólo se escribe:
// el motor nunca lee de acá.
type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

func (r *LedgerRepo) AppendDecision(ctx context.Context, d domain.Decision, actionErr error) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO moderation_decisions
  (id, kind, user_id, username, violation, duration_secs, reason, decided_at, failed, error)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`, d.ID, string(d.Kind), int64(d.User), d.Username, d.Violation, int(d.Duration/time.Second),
		d.Reason, d.At, actionErr != nil, errText(actionErr))
	return err
}

func (r *LedgerRepo) AppendHistory(ctx context.Context, ev domain.HistoryEvent) error {
	var moderatorID *int64
	if ev.ModeratorID.Valid() {
		id := int64(ev.ModeratorID)
		moderatorID = &id
	}
	roles := ev.Roles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO history_events
  (kind, user_id, username, display_name, reason, moderator, moderator_id, roles, happened_at)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, string(ev.Kind), int64(ev.User), ev.Username, ev.DisplayName, ev.Reason, ev.Moderator, moderatorID,
		pq.Array(roles), ev.At)
	return err
}

// PruneOlderThan borra filas registradas hace más de age. Devuelve cuántas por tabla.
func (r *LedgerRepo) PruneOlderThan(ctx context.Context, age time.Duration) (decisions, history int64, err error) {
	cutoff := time.Now().Add(-age)
	res, err := r.db.ExecContext(ctx, `DELETE FROM moderation_decisions WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, 0, err
	}
	decisions, _ = res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `DELETE FROM history_events WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return decisions, 0, err
	}
	history, _ = res.RowsAffected()
	return decisions, history, nil
}

// maxErrText es el límite en bytes de action_error.
const maxErrText = 500

func errText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	if len(s) > maxErrText {
		// cortar en el inicio de una runa, nunca en medio
		n := maxErrText
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return &s
}
