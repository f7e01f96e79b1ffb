package state

import (
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// SweepReport cuenta lo que se borró en cada store.
type SweepReport struct {
	Cooldowns       int
	DedupCleared    int
	Sessions        int
	DurationRecords int
	CameraTimers    int
	Timeouts        int
	History         int
	Pending         int
	UserSets        int
	Commands        int
	Users           int
}

func (r SweepReport) Total() int {
	return r.Cooldowns + r.DedupCleared + r.Sessions + r.DurationRecords + r.CameraTimers +
		r.Timeouts + r.History + r.Pending + r.UserSets + r.Commands + r.Users
}

// RunRetentionSweep poda todos los stores. Toma cada dominio por separado y
// nunca tiene más de un lock a la vez.
func (s *Store) RunRetentionSweep(now time.Time) SweepReport {
	var rep SweepReport
	s.sweepCooldowns(now, &rep)
	s.sweepPresence(now, &rep)
	s.sweepModeration(now, &rep)

	s.analyticsMu.Lock()
	rep.Commands, rep.Users = s.trimAnalyticsLocked()
	s.analyticsMu.Unlock()

	if n := rep.Total(); n > 0 {
		s.log.Info("retention sweep", "removed", n, "history", rep.History, "sessions", rep.Sessions,
			"cooldowns", rep.Cooldowns, "timeouts", rep.Timeouts)
	}
	return rep
}

func (s *Store) sweepCooldowns(now time.Time, rep *SweepReport) {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	for k, e := range s.cooldowns {
		win, err := s.cooldownWindow(k.category)
		if err != nil || now.Sub(e.lastUsed) >= 2*win {
			delete(s.cooldowns, k)
			rep.Cooldowns++
		}
	}
	if len(s.dedup) > s.cfg.Limits.DedupCap {
		rep.DedupCleared = len(s.dedup)
		clear(s.dedup)
	}
}

func (s *Store) sweepPresence(now time.Time, rep *SweepReport) {
	cutoff := now.Add(-s.cfg.Limits.HistoryWindow)

	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()

	for u, rec := range s.durations {
		kept := rec.sessions[:0]
		for _, ss := range rec.sessions {
			if ss.End.After(cutoff) {
				kept = append(kept, ss)
			}
		}
		rep.Sessions += len(rec.sessions) - len(kept)
		clearTail(rec.sessions, len(kept))
		rec.sessions = kept

		// total_time no se recalcula: sólo se borra el registro entero
		if _, open := s.sessions[u]; !open && len(rec.sessions) == 0 {
			delete(s.durations, u)
			rep.DurationRecords++
		}
	}
}

func clearTail(ss []Session, from int) {
	for i := from; i < len(ss); i++ {
		ss[i] = Session{}
	}
}

func (s *Store) sweepModeration(now time.Time, rep *SweepReport) {
	lim := s.cfg.Limits
	cutoff := now.Add(-lim.HistoryWindow)

	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()

	for u, t := range s.timers {
		if now.Sub(t.start) >= 2*s.cfg.GraceWindow {
			delete(s.timers, u)
			rep.CameraTimers++
		}
	}
	// los vencidos entre ticks se cierran como expiración natural
	for u, t := range s.timeouts {
		if !t.End.After(now) {
			s.removeTimeoutLocked(u, Remover{}, now)
			rep.Timeouts++
		}
	}
	for id, p := range s.pending {
		if now.Sub(p.at) >= lim.PendingTTL {
			delete(s.pending, id)
			rep.Pending++
		}
	}
	for u, at := range s.removing {
		if now.Sub(at) >= lim.RemovalGuard {
			delete(s.removing, u)
		}
	}
	for u, at := range s.recentBans {
		if now.Sub(at) >= lim.BanMemory {
			delete(s.recentBans, u)
		}
	}
	if len(s.recentBans) > lim.BanSetCap {
		clear(s.recentBans)
	}
	for _, set := range []map[domain.UserID]struct{}{s.rulesSent, s.dmFailed} {
		if len(set) > lim.UserSetCap {
			rep.UserSets += len(set)
			clear(set)
		}
	}

	for kind, lst := range s.history {
		before := len(lst)
		i := 0
		for i < len(lst) && !lst[i].At.After(cutoff) {
			i++
		}
		lst = lst[i:]
		if len(lst) > lim.HistoryCap {
			lst = lst[len(lst)-lim.HistoryCap:]
		}
		rep.History += before - len(lst)
		s.history[kind] = append([]domain.HistoryEvent(nil), lst...)
	}
}
