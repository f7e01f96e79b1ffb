package state

import (
	"sort"
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

type Session struct {
	Start time.Time
	End   time.Time
}

type durationRecord struct {
	total       time.Duration
	sessions    []Session
	username    string
	displayName string
}

type DurationEntry struct {
	User        domain.UserID
	Username    string
	DisplayName string
	Total       time.Duration
	Online      bool
}

// OnEnter abre una sesión. Si ya hay una abierta no hace nada y devuelve false.
func (s *Store) OnEnter(user domain.UserID, now time.Time) bool {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	s.enterVoiceLocked(user)
	return s.openSessionLocked(user, now)
}

// OnLeave cierra la sesión y suma su duración al total. Sin sesión abierta es
// un no-op (eventos duplicados o atrasados del gateway).
func (s *Store) OnLeave(user domain.UserID, now time.Time) bool {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	delete(s.inVoice, user)
	if !s.closeSessionLocked(user, now) {
		s.log.Warn("leave without open session", "user", user)
		return false
	}
	return true
}

// enterVoiceLocked devuelve true sólo si el usuario no estaba en ningún canal vigilado.
func (s *Store) enterVoiceLocked(user domain.UserID) bool {
	if _, ok := s.inVoice[user]; ok {
		return false
	}
	s.inVoice[user] = struct{}{}
	return true
}

func (s *Store) openSessionLocked(user domain.UserID, now time.Time) bool {
	if _, open := s.sessions[user]; open {
		return false
	}
	s.sessions[user] = now
	if _, ok := s.durations[user]; !ok {
		s.durations[user] = &durationRecord{}
	}
	return true
}

func (s *Store) closeSessionLocked(user domain.UserID, now time.Time) bool {
	start, open := s.sessions[user]
	if !open {
		return false
	}
	delete(s.sessions, user)

	rec, ok := s.durations[user]
	if !ok {
		rec = &durationRecord{}
		s.durations[user] = rec
	}
	if d := now.Sub(start); d > 0 {
		rec.total += d
	}
	rec.sessions = append(rec.sessions, Session{Start: start, End: now})
	return true
}

func (s *Store) identifyLocked(user domain.UserID, username, displayName string) {
	rec, ok := s.durations[user]
	if !ok {
		return
	}
	if username != "" {
		rec.username = username
	}
	if displayName != "" {
		rec.displayName = displayName
	}
}

// SnapshotTotals suma la sesión abierta de forma transitoria, sin tocar el total guardado.
func (s *Store) SnapshotTotals(now time.Time, excluded domain.UserSet) map[domain.UserID]time.Duration {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()

	out := make(map[domain.UserID]time.Duration, len(s.durations))
	for u, rec := range s.durations {
		if excluded.Has(u) {
			continue
		}
		out[u] = s.liveTotalLocked(u, rec, now)
	}
	return out
}

func (s *Store) liveTotalLocked(u domain.UserID, rec *durationRecord, now time.Time) time.Duration {
	total := rec.total
	if start, open := s.sessions[u]; open {
		if d := now.Sub(start); d > 0 {
			total += d
		}
	}
	return total
}

// QueryTopDuration ordena por total desc y, a igual total, por id asc.
// n <= 0 devuelve todos.
func (s *Store) QueryTopDuration(n int, excluded domain.UserSet, now time.Time) []DurationEntry {
	s.presenceMu.Lock()
	entries := make([]DurationEntry, 0, len(s.durations))
	for u, rec := range s.durations {
		if excluded.Has(u) {
			continue
		}
		_, online := s.sessions[u]
		entries = append(entries, DurationEntry{
			User:        u,
			Username:    rec.username,
			DisplayName: rec.displayName,
			Total:       s.liveTotalLocked(u, rec, now),
			Online:      online,
		})
	}
	s.presenceMu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].User < entries[j].User
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// UserSessions devuelve una copia del historial de sesiones cerradas.
func (s *Store) UserSessions(user domain.UserID) []Session {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	rec, ok := s.durations[user]
	if !ok {
		return nil
	}
	return append([]Session(nil), rec.sessions...)
}

// IsPresent dice si el usuario está en algún canal vigilado, sume tiempo o no.
func (s *Store) IsPresent(user domain.UserID) bool {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	_, ok := s.inVoice[user]
	return ok
}

func (s *Store) OpenSessions() int {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	return len(s.sessions)
}

func (s *Store) TrackingSince() time.Time {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	return s.trackingSince
}
