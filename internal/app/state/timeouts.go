package state

import (
	"sort"
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// Remover identifica quién quitó un timeout. Name vacío = expiró solo.
type Remover struct {
	Name string
	ID   domain.UserID
}

// ObserveTimeout registra un timeout aplicado por fuera del motor (un moderador).
// Si ya hay uno vigente para el usuario se conserva el existente.
func (s *Store) ObserveTimeout(t domain.ActiveTimeout, now time.Time) bool {
	if !t.User.Valid() || !t.End.After(now) {
		return false
	}
	if t.Source == "" {
		t.Source = domain.TimeoutByModerator
	}
	if t.Start.IsZero() {
		t.Start = now
	}

	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	if cur, ok := s.timeouts[t.User]; ok && cur.End.After(now) {
		return false
	}
	s.timeouts[t.User] = t
	return true
}

// RemoveTimeout borra el timeout activo y deja el evento untimeout en el
// historial, en la misma sección crítica. No toca el contador de infracciones.
func (s *Store) RemoveTimeout(user domain.UserID, by Remover, now time.Time) (domain.ActiveTimeout, bool) {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	return s.removeTimeoutLocked(user, by, now)
}

func (s *Store) removeTimeoutLocked(user domain.UserID, by Remover, now time.Time) (domain.ActiveTimeout, bool) {
	t, ok := s.timeouts[user]
	if !ok {
		return domain.ActiveTimeout{}, false
	}
	delete(s.timeouts, user)

	ev := domain.HistoryEvent{
		Kind:     domain.HistoryUntimeout,
		User:     user,
		Username: t.Username,
		At:       now,
	}
	if by.Name == "" {
		ev.Moderator = domain.SystemModerator
		ev.Reason = "Timeout expirado naturalmente"
	} else {
		ev.Moderator = by.Name
		ev.ModeratorID = by.ID
		ev.Reason = "Quitado manualmente por " + by.Name
	}
	s.appendHistoryLocked(ev)
	return t, true
}

// QueryTimedOut lista los timeouts vigentes, el que termina antes primero.
func (s *Store) QueryTimedOut(now time.Time) []domain.ActiveTimeout {
	s.moderationMu.Lock()
	out := make([]domain.ActiveTimeout, 0, len(s.timeouts))
	for _, t := range s.timeouts {
		if t.End.After(now) {
			out = append(out, t)
		}
	}
	s.moderationMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].End.Equal(out[j].End) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].User < out[j].User
	})
	return out
}

func (s *Store) ActiveTimeout(user domain.UserID) (domain.ActiveTimeout, bool) {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	t, ok := s.timeouts[user]
	return t, ok
}

// BeginTimeoutRemoval evita procesar dos veces el mismo untimeout cuando el
// gateway manda varios member update seguidos. Devuelve false si ya hay uno en curso.
func (s *Store) BeginTimeoutRemoval(user domain.UserID, now time.Time) bool {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	if at, ok := s.removing[user]; ok && now.Sub(at) < s.cfg.Limits.RemovalGuard {
		return false
	}
	s.removing[user] = now
	return true
}

func (s *Store) EndTimeoutRemoval(user domain.UserID) {
	s.moderationMu.Lock()
	delete(s.removing, user)
	s.moderationMu.Unlock()
}

// MarkBanned recuerda el ban para que el member remove que llega después no
// se clasifique como kick/leave.
func (s *Store) MarkBanned(user domain.UserID, now time.Time) {
	s.moderationMu.Lock()
	s.recentBans[user] = now
	s.moderationMu.Unlock()
}

func (s *Store) WasRecentlyBanned(user domain.UserID, now time.Time) bool {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	at, ok := s.recentBans[user]
	return ok && now.Sub(at) < s.cfg.Limits.BanMemory
}

// ExpiredTimeouts lista los timeouts cuyo fin ya pasó y siguen registrados.
func (s *Store) ExpiredTimeouts(now time.Time) []domain.ActiveTimeout {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	var out []domain.ActiveTimeout
	for _, t := range s.timeouts {
		if !t.End.After(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}
