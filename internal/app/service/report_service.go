package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

// ReportService arma los textos de /times, /stats, /timeouts y /whois.
// Sólo lee snapshots del store.
type ReportService struct {
	store    *state.Store
	excluded domain.UserSet
	now      func() time.Time
}

func NewReportService(store *state.Store, excluded domain.UserSet) *ReportService {
	return &ReportService{store: store, excluded: excluded, now: time.Now}
}

func (r *ReportService) Times(limit int) string {
	now := r.now()
	top := r.store.QueryTopDuration(limit, r.excluded, now)
	if len(top) == 0 {
		return "ℹ️ Todavía no hay tiempo registrado en el canal."
	}

	var total time.Duration
	for _, d := range r.store.SnapshotTotals(now, r.excluded) {
		total += d
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏱️ **Top %d en el canal**\n", len(top))
	for i, e := range top {
		online := ""
		if e.Online {
			online = " 🟢"
		}
		fmt.Fprintf(&b, "%d. %s · %s%s\n", i+1, displayName(e.User, e.DisplayName, e.Username), formatDuration(e.Total), online)
	}
	fmt.Fprintf(&b, "\nTotal: **%s** · desde <t:%d:R>", formatDuration(total), r.store.TrackingSince().Unix())
	return b.String()
}

func (r *ReportService) Stats() string {
	sum := r.store.QueryAnalyticsSummary()

	var b strings.Builder
	b.WriteString(r.Times(10))

	b.WriteString("\n\n📊 **Comandos**\n")
	if len(sum.CommandUsage) == 0 {
		b.WriteString("Sin uso registrado.\n")
	}
	for i, c := range sum.CommandUsage {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "`/%s` · %d\n", c.Command, c.Count)
	}

	users := 0
	for _, u := range sum.TopUsers {
		if r.excluded.Has(u.User) {
			continue
		}
		if users == 0 {
			b.WriteString("\n👤 **Usuarios más activos**\n")
		}
		fmt.Fprintf(&b, "%s · %d\n", u.User.Mention(), u.Total)
		users++
		if users == 5 {
			break
		}
	}

	violations := r.store.QueryViolations(r.excluded)
	fmt.Fprintf(&b, "\n🚨 **Infracciones** (%d eventos)\n", sum.ViolationEvents)
	if len(violations) == 0 {
		b.WriteString("Ninguna.\n")
	}
	for i, v := range violations {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "%s · %d\n", v.User.Mention(), v.Count)
	}
	if sum.ActionFailures > 0 {
		fmt.Fprintf(&b, "\n⚠️ Acciones fallidas: %d", sum.ActionFailures)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *ReportService) Timeouts() string {
	now := r.now()
	active := r.store.QueryTimedOut(now)

	var b strings.Builder
	b.WriteString("⛔ **Timeouts activos**\n")
	if len(active) == 0 {
		b.WriteString("Ninguno.\n")
	}
	for _, t := range active {
		fmt.Fprintf(&b, "%s · termina <t:%d:R> · por %s", t.User.Mention(), t.End.Unix(), t.TimedBy)
		if t.Reason != "" {
			fmt.Fprintf(&b, " · %s", t.Reason)
		}
		b.WriteString("\n")
	}

	evs, _ := r.store.QueryHistory(domain.HistoryUntimeout, 24, now)
	if len(evs) > 0 {
		b.WriteString("\n🔓 **Untimeouts (24h)**\n")
		for i := len(evs) - 1; i >= 0 && i >= len(evs)-10; i-- {
			ev := evs[i]
			how := "manual · " + ev.Moderator
			if ev.Natural() {
				how = "expiró"
			}
			fmt.Fprintf(&b, "%s · %s · <t:%d:R>\n", ev.User.Mention(), how, ev.At.Unix())
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Whois resume el historial de las últimas hours horas por tipo.
func (r *ReportService) Whois(hours int) string {
	if hours <= 0 {
		hours = 24
	}
	now := r.now()

	var b strings.Builder
	fmt.Fprintf(&b, "🕵️ **Actividad de las últimas %dh**\n", hours)
	empty := true
	for _, kind := range domain.HistoryKinds {
		evs, err := r.store.QueryHistory(kind, hours, now)
		if err != nil || len(evs) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "\n**%s** (%d)\n", historyTitle(kind), len(evs))
		for i := len(evs) - 1; i >= 0 && i >= len(evs)-10; i-- {
			ev := evs[i]
			fmt.Fprintf(&b, "%s · <t:%d:R>", displayName(ev.User, ev.DisplayName, ev.Username), ev.At.Unix())
			if ev.Moderator != "" && ev.Moderator != domain.SystemModerator {
				fmt.Fprintf(&b, " · por %s", ev.Moderator)
			}
			if ev.Reason != "" {
				fmt.Fprintf(&b, " · %s", ev.Reason)
			}
			b.WriteString("\n")
		}
	}
	if empty {
		b.WriteString("Sin eventos.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func historyTitle(k domain.HistoryKind) string {
	switch k {
	case domain.HistoryJoin:
		return "📥 Entradas"
	case domain.HistoryLeave:
		return "📤 Salidas"
	case domain.HistoryBan:
		return "🔨 Bans"
	case domain.HistoryKick:
		return "👢 Kicks"
	case domain.HistoryUnban:
		return "♻️ Unbans"
	case domain.HistoryUntimeout:
		return "🔓 Untimeouts"
	}
	return string(k)
}

func displayName(u domain.UserID, display, username string) string {
	switch {
	case display != "" && username != "" && display != username:
		return fmt.Sprintf("%s (%s)", display, username)
	case display != "":
		return display
	case username != "":
		return username
	}
	return u.Mention()
}

const (
	day   = 24 * time.Hour
	month = time.Duration(30.4375 * float64(day))
	year  = 365 * day
)

// formatDuration: "7h 42m" por debajo de un día, "1y 1mo 5d" desde un día.
// Menos de un minuto se muestra como "1m".
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "1m"
	}

	var parts []string
	add := func(n int64, unit string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit))
		}
	}
	if d >= day {
		add(int64(d/year), "y")
		d %= year
		add(int64(d/month), "mo")
		d %= month
		add(int64(d/day), "d")
	} else {
		add(int64(d/time.Hour), "h")
		d %= time.Hour
		add(int64(d/time.Minute), "m")
	}
	return strings.Join(parts, " ")
}
