package state

import (
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// CooldownResult: si Allowed es false, Remaining es lo que falta y ShouldWarn
// es true sólo la primera vez que se bloquea dentro de la misma ventana.
type CooldownResult struct {
	Allowed    bool
	Remaining  time.Duration
	ShouldWarn bool
}

func (s *Store) cooldownWindow(cat domain.CooldownCategory) (time.Duration, error) {
	switch cat {
	case domain.CooldownCommand, domain.CooldownButton:
		return s.cfg.CommandCooldown, nil
	case domain.CooldownHelp:
		return s.cfg.HelpCooldown, nil
	}
	return 0, domain.ErrUnknownCategory
}

// CheckCooldown arma el cooldown si está libre. Una ventana <= 0 nunca bloquea.
func (s *Store) CheckCooldown(user domain.UserID, cat domain.CooldownCategory, now time.Time) (CooldownResult, error) {
	if !user.Valid() {
		return CooldownResult{}, domain.ErrInvalidUser
	}
	win, err := s.cooldownWindow(cat)
	if err != nil {
		return CooldownResult{}, err
	}

	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	k := cooldownKey{user: user, category: cat}
	if e, ok := s.cooldowns[k]; ok {
		if remaining := win - now.Sub(e.lastUsed); remaining > 0 {
			warn := !e.warned
			if warn {
				e.warned = true
				s.cooldowns[k] = e
			}
			return CooldownResult{Remaining: remaining, ShouldWarn: warn}, nil
		}
	}
	s.cooldowns[k] = cooldownEntry{lastUsed: now}
	return CooldownResult{Allowed: true}, nil
}
