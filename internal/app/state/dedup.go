package state

import (
	"fmt"
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func (s *Store) dedupKey(user domain.UserID, command string, now time.Time) string {
	bucket := int64(s.cfg.Limits.DedupBucket / time.Second)
	if bucket <= 0 {
		bucket = 1
	}
	return fmt.Sprintf("%d-%s-%d", user, command, now.Unix()/bucket)
}

// ShouldLogInvocation devuelve false si la misma invocación ya se registró en
// este bucket (ej: un botón que además re-despacha el comando).
func (s *Store) ShouldLogInvocation(user domain.UserID, command string, now time.Time) bool {
	key := s.dedupKey(user, command, now)

	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()
	if _, seen := s.dedup[key]; seen {
		return false
	}
	s.dedup[key] = struct{}{}
	return true
}
