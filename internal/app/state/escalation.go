package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// Presence es la foto de un usuario que manda la capa de eventos en cada
// cambio de voz. InMonitored = está ahora mismo en un canal vigilado.
// Untracked = canal vigilado que no suma tiempo (el alternativo).
type Presence struct {
	User        domain.UserID
	Username    string
	DisplayName string
	InMonitored bool
	Untracked   bool
	CameraOn    bool
	// Exempt: admins y cuentas de servicio, nunca entran en gracia.
	Exempt bool
}

// OnPresenceChanged actualiza sesión y máquina de cámara, y devuelve las
// acciones a ejecutar (puede ser ninguna).
func (s *Store) OnPresenceChanged(p Presence, now time.Time) ([]domain.Decision, error) {
	if !p.User.Valid() {
		return nil, domain.ErrInvalidUser
	}

	s.presenceMu.Lock()
	entered := false
	if p.InMonitored {
		entered = s.enterVoiceLocked(p.User)
		if p.Untracked {
			s.closeSessionLocked(p.User, now)
		} else {
			s.openSessionLocked(p.User, now)
		}
		s.identifyLocked(p.User, p.Username, p.DisplayName)
	} else {
		delete(s.inVoice, p.User)
		s.closeSessionLocked(p.User, now)
	}
	// la cámara se evalúa sin soltar presenceMu
	s.moderationMu.Lock()
	out := s.evaluateCameraLocked(p, entered, now)
	s.moderationMu.Unlock()
	s.presenceMu.Unlock()

	s.countDecisions(out, 0)
	return out, nil
}

func (s *Store) evaluateCameraLocked(p Presence, entered bool, now time.Time) []domain.Decision {
	var out []domain.Decision
	u := p.User

	if !p.InMonitored {
		delete(s.timers, u)
		delete(s.cameraOn, u)
		if _, ok := s.muted[u]; ok {
			delete(s.muted, u)
			out = append(out, s.newDecisionLocked(domain.DecisionUnmute, p.User, p.Username, now))
		}
		return out
	}

	if entered && s.cfg.SendRules && !p.Exempt {
		_, sent := s.rulesSent[u]
		_, failed := s.dmFailed[u]
		if !sent && !failed {
			out = append(out, s.newDecisionLocked(domain.DecisionSendRules, p.User, p.Username, now))
		}
	}

	wasOn, seen := s.cameraOn[u]
	s.cameraOn[u] = p.CameraOn

	if p.Exempt {
		delete(s.timers, u)
		return out
	}

	if p.CameraOn {
		delete(s.timers, u)
		if _, ok := s.muted[u]; ok && !s.hush {
			delete(s.muted, u)
			out = append(out, s.newDecisionLocked(domain.DecisionUnmute, p.User, p.Username, now))
		}
		return out
	}

	// Cámara apagada: la gracia sólo arranca con la transición on->off o al
	// entrar. Un off repetido es el mismo periodo continuo.
	if !entered && seen && !wasOn {
		return out
	}
	if !s.modActive {
		return out
	}
	s.timers[u] = cameraTimer{start: now, username: p.Username}
	if s.cfg.AutoMute {
		if _, ok := s.muted[u]; !ok {
			s.muted[u] = struct{}{}
			out = append(out, s.newDecisionLocked(domain.DecisionMute, p.User, p.Username, now))
		}
	}
	return out
}

func (s *Store) newDecisionLocked(kind domain.DecisionKind, user domain.UserID, username string, now time.Time) domain.Decision {
	d := domain.Decision{
		ID:       uuid.New(),
		Kind:     kind,
		User:     user,
		Username: username,
		At:       now,
	}
	switch kind {
	case domain.DecisionSendRules:
		d.NotifyDM = true
	case domain.DecisionMute:
		d.Reason = "Cámara apagada"
	case domain.DecisionUnmute:
		d.Reason = "Cámara encendida"
	}
	s.pending[d.ID] = pendingAction{decision: d, at: now}
	return d
}

// EscalateDue dispara las infracciones de todas las gracias vencidas. Cada
// periodo de gracia produce exactamente una infracción: el timer se borra al dispararse.
func (s *Store) EscalateDue(now time.Time) []domain.Decision {
	s.moderationMu.Lock()
	if !s.modActive || len(s.timers) == 0 {
		s.moderationMu.Unlock()
		return nil
	}

	var due []domain.UserID
	for u, t := range s.timers {
		if now.Sub(t.start) >= s.cfg.GraceWindow {
			due = append(due, u)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })

	out := make([]domain.Decision, 0, len(due))
	for _, u := range due {
		t := s.timers[u]
		delete(s.timers, u)
		s.violations[u]++
		out = append(out, s.violationDecisionLocked(u, t.username, s.violations[u], now))
	}
	s.moderationMu.Unlock()

	s.countDecisions(out, len(out))
	return out
}

func (s *Store) violationDecisionLocked(u domain.UserID, username string, n int, now time.Time) domain.Decision {
	if n <= 1 {
		d := s.newDecisionLocked(domain.DecisionMoveToHolding, u, username, now)
		_, failed := s.dmFailed[u]
		d.NotifyDM = !failed
		d.Violation = n
		d.Reason = "Cámara apagada más del tiempo permitido"
		s.pending[d.ID] = pendingAction{decision: d, at: now}
		return d
	}

	dur := s.cfg.SecondTimeout
	if n >= 3 {
		dur = s.cfg.ThirdTimeout
	}
	d := s.newDecisionLocked(domain.DecisionApplyTimeout, u, username, now)
	d.Violation = n
	d.Duration = dur
	d.Reason = fmt.Sprintf("Cámara apagada (infracción #%d)", n)
	s.pending[d.ID] = pendingAction{decision: d, at: now}

	s.timeouts[u] = domain.ActiveTimeout{
		User:     u,
		Username: username,
		Start:    now,
		End:      now.Add(dur),
		Reason:   d.Reason,
		TimedBy:  domain.SystemModerator,
		Source:   domain.TimeoutByEngine,
	}
	return d
}

// ConfirmAction recibe el resultado de la acción remota. Un fallo no revierte
// la decisión, sólo se contabiliza.
func (s *Store) ConfirmAction(id uuid.UUID, actionErr error) error {
	s.moderationMu.Lock()
	p, ok := s.pending[id]
	if !ok {
		s.moderationMu.Unlock()
		s.log.Warn("confirm for unknown decision", "id", id)
		return domain.ErrUnknownDecision
	}
	delete(s.pending, id)
	d := p.decision
	if d.Kind == domain.DecisionSendRules {
		if actionErr != nil {
			s.dmFailed[d.User] = struct{}{}
		} else {
			s.rulesSent[d.User] = struct{}{}
		}
	}
	s.moderationMu.Unlock()

	if actionErr != nil {
		s.analyticsMu.Lock()
		s.actionFailures++
		s.analyticsMu.Unlock()
		s.log.Warn("moderation action failed", "kind", d.Kind, "user", d.User, "err", actionErr)
	}
	return nil
}

func (s *Store) PendingActions() int {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	return len(s.pending)
}

// MarkDMFailed: el usuario no recibe DMs; se suprimen avisos futuros.
func (s *Store) MarkDMFailed(user domain.UserID) {
	s.moderationMu.Lock()
	s.dmFailed[user] = struct{}{}
	s.moderationMu.Unlock()
}

func (s *Store) DMFailed(user domain.UserID) bool {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	_, ok := s.dmFailed[user]
	return ok
}

func (s *Store) ViolationCount(user domain.UserID) int {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	return s.violations[user]
}

type ViolationEntry struct {
	User  domain.UserID
	Count int
}

// QueryViolations ordenado por cantidad desc, id asc.
func (s *Store) QueryViolations(excluded domain.UserSet) []ViolationEntry {
	s.moderationMu.Lock()
	out := make([]ViolationEntry, 0, len(s.violations))
	for u, n := range s.violations {
		if n > 0 && !excluded.Has(u) {
			out = append(out, ViolationEntry{User: u, Count: n})
		}
	}
	s.moderationMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].User < out[j].User
	})
	return out
}

// InGrace indica si hay un timer de cámara corriendo para el usuario.
func (s *Store) InGrace(user domain.UserID) bool {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	_, ok := s.timers[user]
	return ok
}

func (s *Store) ModerationActive() bool {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	return s.modActive
}

// SetModerationActive prende/apaga la moderación de cámara. Al apagarla se
// borran los timers y se des-mutea a quien el bot había muteado.
func (s *Store) SetModerationActive(active bool, now time.Time) ([]domain.Decision, error) {
	if active && s.cfg.ModerationDisabled {
		return nil, ErrModerationLocked
	}
	s.moderationMu.Lock()
	s.modActive = active
	var out []domain.Decision
	if !active {
		clear(s.timers)
		out = s.releaseMutedLocked(now)
	}
	s.moderationMu.Unlock()

	s.countDecisions(out, 0)
	return out, nil
}

func (s *Store) HushActive() bool {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	return s.hush
}

// SetHush: con hush activo encender la cámara no des-mutea. Al quitarlo se
// des-mutea a quienes ya tienen la cámara prendida.
func (s *Store) SetHush(active bool, now time.Time) []domain.Decision {
	s.moderationMu.Lock()
	s.hush = active
	var out []domain.Decision
	if !active {
		users := make([]domain.UserID, 0, len(s.muted))
		for u := range s.muted {
			if s.cameraOn[u] {
				users = append(users, u)
			}
		}
		sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
		for _, u := range users {
			delete(s.muted, u)
			out = append(out, s.newDecisionLocked(domain.DecisionUnmute, u, "", now))
		}
	}
	s.moderationMu.Unlock()

	s.countDecisions(out, 0)
	return out
}

func (s *Store) releaseMutedLocked(now time.Time) []domain.Decision {
	users := make([]domain.UserID, 0, len(s.muted))
	for u := range s.muted {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	out := make([]domain.Decision, 0, len(users))
	for _, u := range users {
		delete(s.muted, u)
		out = append(out, s.newDecisionLocked(domain.DecisionUnmute, u, "", now))
	}
	return out
}

func (s *Store) countDecisions(ds []domain.Decision, violations int) {
	if len(ds) == 0 && violations == 0 {
		return
	}
	s.analyticsMu.Lock()
	for _, d := range ds {
		s.decisionCounts[d.Kind]++
	}
	s.violationEvents += violations
	s.analyticsMu.Unlock()
}
