package state

import (
	"sort"
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func (s *Store) RecordHistoryEvent(ev domain.HistoryEvent) error {
	if _, err := domain.ParseHistoryKind(string(ev.Kind)); err != nil {
		return err
	}
	if !ev.User.Valid() {
		return domain.ErrInvalidUser
	}
	ev.Roles = append([]string(nil), ev.Roles...)

	s.moderationMu.Lock()
	s.appendHistoryLocked(ev)
	s.moderationMu.Unlock()
	return nil
}

// appendHistoryLocked mantiene cada lista ordenada por tiempo. Un evento que
// llega atrasado se inserta en su lugar en vez de romper el orden.
func (s *Store) appendHistoryLocked(ev domain.HistoryEvent) {
	lst := s.history[ev.Kind]
	i := len(lst)
	for i > 0 && lst[i-1].At.After(ev.At) {
		i--
	}
	lst = append(lst, domain.HistoryEvent{})
	copy(lst[i+1:], lst[i:])
	lst[i] = ev

	// tope duro entre sweeps
	if limit := 2 * s.cfg.Limits.HistoryCap; limit > 0 && len(lst) > limit {
		lst = append([]domain.HistoryEvent(nil), lst[len(lst)-s.cfg.Limits.HistoryCap:]...)
	}
	s.history[ev.Kind] = lst
}

// QueryHistory devuelve los eventos de las últimas sinceHours horas, más viejo primero.
func (s *Store) QueryHistory(kind domain.HistoryKind, sinceHours int, now time.Time) ([]domain.HistoryEvent, error) {
	if _, err := domain.ParseHistoryKind(string(kind)); err != nil {
		return nil, err
	}
	cutoff := now.Add(-time.Duration(sinceHours) * time.Hour)

	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()

	lst := s.history[kind]
	i := sort.Search(len(lst), func(i int) bool { return !lst[i].At.Before(cutoff) })
	out := make([]domain.HistoryEvent, len(lst)-i)
	copy(out, lst[i:])
	return out, nil
}

func (s *Store) HistoryLen(kind domain.HistoryKind) int {
	s.moderationMu.Lock()
	defer s.moderationMu.Unlock()
	return len(s.history[kind])
}
