package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func TestRemoveTimeoutManualAndNatural(t *testing.T) {
	s := newTestStore(testConfig())

	for _, u := range []domain.UserID{1, 2} {
		_, _ = s.OnPresenceChanged(presence(u, true, true), at(0))
		_, _ = s.OnPresenceChanged(presence(u, true, false), at(1))
		s.EscalateDue(at(16))
		_, _ = s.OnPresenceChanged(presence(u, true, true), at(20))
		_, _ = s.OnPresenceChanged(presence(u, true, false), at(21))
		s.EscalateDue(at(36))
	}
	require.Len(t, s.QueryTimedOut(at(40)), 2)

	removed, ok := s.RemoveTimeout(1, Remover{Name: "mod", ID: 900}, at(50))
	assert.True(t, ok)
	assert.Equal(t, domain.UserID(1), removed.User)

	_, ok = s.RemoveTimeout(2, Remover{}, at(340))
	assert.True(t, ok)

	_, ok = s.RemoveTimeout(2, Remover{}, at(341))
	assert.False(t, ok)

	evs, err := s.QueryHistory(domain.HistoryUntimeout, 24, at(400))
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "mod", evs[0].Moderator)
	assert.Equal(t, domain.UserID(900), evs[0].ModeratorID)
	assert.False(t, evs[0].Natural())
	assert.True(t, evs[1].Natural())

	// quitar el timeout no borra infracciones
	assert.Equal(t, 2, s.ViolationCount(1))
	assert.Empty(t, s.QueryTimedOut(at(400)))
}

func TestObserveTimeoutKeepsExisting(t *testing.T) {
	s := newTestStore(testConfig())

	ok := s.ObserveTimeout(domain.ActiveTimeout{User: 3, End: at(600), TimedBy: "mod"}, at(0))
	assert.True(t, ok)
	got, _ := s.ActiveTimeout(3)
	assert.Equal(t, domain.TimeoutByModerator, got.Source)
	assert.Equal(t, at(0), got.Start)

	assert.False(t, s.ObserveTimeout(domain.ActiveTimeout{User: 3, End: at(900)}, at(10)))
	got, _ = s.ActiveTimeout(3)
	assert.Equal(t, at(600), got.End)

	// ya expirado o inválido: se ignora
	assert.False(t, s.ObserveTimeout(domain.ActiveTimeout{User: 4, End: at(5)}, at(10)))
	assert.False(t, s.ObserveTimeout(domain.ActiveTimeout{End: at(50)}, at(10)))
}

func TestTimeoutRemovalGuard(t *testing.T) {
	s := newTestStore(testConfig())

	assert.True(t, s.BeginTimeoutRemoval(1, at(0)))
	assert.False(t, s.BeginTimeoutRemoval(1, at(1)))
	s.EndTimeoutRemoval(1)
	assert.True(t, s.BeginTimeoutRemoval(1, at(2)))
	assert.True(t, s.BeginTimeoutRemoval(1, at(2).Add(time.Minute)))
}

func TestRecentlyBanned(t *testing.T) {
	s := newTestStore(testConfig())

	assert.False(t, s.WasRecentlyBanned(1, at(0)))
	s.MarkBanned(1, at(0))
	assert.True(t, s.WasRecentlyBanned(1, at(30)))
	assert.False(t, s.WasRecentlyBanned(1, at(0).Add(10*time.Minute)))
}

func TestExpiredTimeouts(t *testing.T) {
	s := newTestStore(testConfig())
	s.ObserveTimeout(domain.ActiveTimeout{User: 2, End: at(100)}, at(0))
	s.ObserveTimeout(domain.ActiveTimeout{User: 1, End: at(50)}, at(0))
	s.ObserveTimeout(domain.ActiveTimeout{User: 3, End: at(500)}, at(0))

	got := s.ExpiredTimeouts(at(100))
	require.Len(t, got, 2)
	assert.Equal(t, domain.UserID(1), got[0].User)
	assert.Equal(t, domain.UserID(2), got[1].User)
}
