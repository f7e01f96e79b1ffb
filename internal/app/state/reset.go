package state

import (
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// PresentUser es alguien que sigue en el canal vigilado al momento del reset.
type PresentUser struct {
	User        domain.UserID
	Username    string
	DisplayName string
	Untracked   bool
}

// ResetStats borra duraciones, analytics, infracciones y timers de cámara de
// una sola vez (presence -> moderation -> analytics) y reabre la sesión de
// quienes siguen presentes.
func (s *Store) ResetStats(now time.Time, present []PresentUser) {
	s.presenceMu.Lock()
	s.moderationMu.Lock()
	s.analyticsMu.Lock()

	clear(s.sessions)
	clear(s.durations)
	s.trackingSince = now
	for _, p := range present {
		if !p.User.Valid() {
			continue
		}
		s.enterVoiceLocked(p.User)
		if p.Untracked {
			continue
		}
		s.openSessionLocked(p.User, now)
		s.identifyLocked(p.User, p.Username, p.DisplayName)
	}

	clear(s.violations)
	clear(s.timers)
	// el próximo evento de quien sigue sin cámara vuelve a abrir la gracia
	for u, on := range s.cameraOn {
		if !on {
			delete(s.cameraOn, u)
		}
	}

	clear(s.commandUsage)
	clear(s.usageByUser)
	clear(s.decisionCounts)
	s.violationEvents = 0
	s.actionFailures = 0

	s.analyticsMu.Unlock()
	s.moderationMu.Unlock()
	s.presenceMu.Unlock()

	s.log.Info("stats reset", "reopened_sessions", len(present))
}

// ResetViolations pone en cero el contador de un usuario y devuelve el valor anterior.
func (s *Store) ResetViolations(user domain.UserID) int {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	prev := s.violations[user]
	delete(s.violations, user)
	return prev
}
