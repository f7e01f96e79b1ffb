package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func TestSweepHistoryWindowAndCap(t *testing.T) {
	s := newTestStore(testConfig())
	now := t0.Add(10 * 24 * time.Hour)

	for i := 0; i < 50; i++ {
		_ = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryBan, User: 1, At: now.Add(-8*24*time.Hour + time.Duration(i)*time.Minute)})
	}
	for i := 0; i < 250; i++ {
		_ = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryJoin, User: domain.UserID(i + 1), At: now.Add(-time.Duration(250-i) * time.Minute)})
	}

	s.RunRetentionSweep(now)

	for _, k := range domain.HistoryKinds {
		evs, err := s.QueryHistory(k, 24*30, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(evs), 200)
		for _, ev := range evs {
			assert.True(t, ev.At.After(now.Add(-7*24*time.Hour)))
		}
	}
	assert.Equal(t, 0, s.HistoryLen(domain.HistoryBan))

	joins, _ := s.QueryHistory(domain.HistoryJoin, 24, now)
	require.Len(t, joins, 200)
	// se quedan los más recientes
	assert.Equal(t, domain.UserID(250), joins[199].User)
	assert.Equal(t, domain.UserID(51), joins[0].User)
}

func TestSweepCooldownsAndDedup(t *testing.T) {
	s := newTestStore(testConfig())

	_, _ = s.CheckCooldown(1, domain.CooldownCommand, at(0))
	_, _ = s.CheckCooldown(1, domain.CooldownHelp, at(0))

	rep := s.RunRetentionSweep(at(6)) // 2 x 3s
	assert.Equal(t, 1, rep.Cooldowns)

	r, _ := s.CheckCooldown(1, domain.CooldownHelp, at(7))
	assert.False(t, r.Allowed, "help cooldown is still live")

	for i := 0; i < 5001; i++ {
		s.ShouldLogInvocation(domain.UserID(i+1), "stats", at(0))
	}
	rep = s.RunRetentionSweep(at(8))
	assert.Equal(t, 5001, rep.DedupCleared)
	assert.True(t, s.ShouldLogInvocation(1, "stats", at(0)))
}

func TestSweepSessionsAndDurationRecords(t *testing.T) {
	s := newTestStore(testConfig())
	day := 24 * time.Hour

	// 1: sólo sesiones viejas -> se borra el registro
	s.OnEnter(1, t0)
	s.OnLeave(1, t0.Add(time.Hour))
	// 2: una vieja y una reciente -> se conserva con el total intacto
	s.OnEnter(2, t0)
	s.OnLeave(2, t0.Add(time.Hour))
	s.OnEnter(2, t0.Add(9*day))
	s.OnLeave(2, t0.Add(9*day+time.Hour))
	// 3: sesiones viejas pero sigue conectado
	s.OnEnter(3, t0)
	s.OnLeave(3, t0.Add(time.Hour))
	s.OnEnter(3, t0.Add(9*day))

	now := t0.Add(10 * day)
	rep := s.RunRetentionSweep(now)
	assert.Equal(t, 3, rep.Sessions)
	assert.Equal(t, 1, rep.DurationRecords)

	totals := s.SnapshotTotals(now, nil)
	_, has1 := totals[1]
	assert.False(t, has1)
	assert.Equal(t, 2*time.Hour, totals[2])
	assert.Equal(t, time.Hour+day, totals[3])
	assert.Len(t, s.UserSessions(2), 1)
}

func TestSweepTimeoutsTimersAndPending(t *testing.T) {
	s := newTestStore(testConfig())

	s.ObserveTimeout(domain.ActiveTimeout{User: 1, End: at(100)}, at(0))
	s.ObserveTimeout(domain.ActiveTimeout{User: 2, End: at(1000)}, at(0))
	_, _ = s.OnPresenceChanged(presence(3, true, false), at(0))

	rep := s.RunRetentionSweep(at(200))
	assert.Equal(t, 1, rep.Timeouts)
	assert.Equal(t, 1, rep.CameraTimers)
	_, ok := s.ActiveTimeout(2)
	assert.True(t, ok)
	assert.False(t, s.InGrace(3))

	_, _ = s.OnPresenceChanged(presence(4, true, false), at(200))
	ds := s.EscalateDue(at(215))
	require.Len(t, ds, 1)
	rep = s.RunRetentionSweep(at(215).Add(11 * time.Minute))
	assert.Equal(t, 1, rep.Pending)
	assert.ErrorIs(t, s.ConfirmAction(ds[0].ID, nil), domain.ErrUnknownDecision)
}

func TestSweepClearsLargeUserSets(t *testing.T) {
	s := newTestStore(testConfig())
	for i := 1; i <= 1001; i++ {
		s.MarkDMFailed(domain.UserID(i))
	}
	rep := s.RunRetentionSweep(at(0))
	assert.Equal(t, 1001, rep.UserSets)
	assert.False(t, s.DMFailed(1))
}

func ExampleStore_RunRetentionSweep() {
	s := New(DefaultConfig(), nil, t0)
	_, _ = s.CheckCooldown(1, domain.CooldownCommand, t0)
	rep := s.RunRetentionSweep(t0.Add(time.Minute))
	fmt.Println(rep.Cooldowns)
	// Output: 1
}

func TestSweepClosesExpiredTimeoutAsNatural(t *testing.T) {
	s := newTestStore(testConfig())

	_, _ = s.OnPresenceChanged(presence(7, true, true), at(0))
	_, _ = s.OnPresenceChanged(presence(7, true, false), at(1))
	s.EscalateDue(at(16))
	_, _ = s.OnPresenceChanged(presence(7, true, true), at(20))
	_, _ = s.OnPresenceChanged(presence(7, true, false), at(21))
	s.EscalateDue(at(36))
	active, ok := s.ActiveTimeout(7)
	require.True(t, ok)

	// el tick no llegó a verlo vencer; lo cierra el barrido
	rep := s.RunRetentionSweep(active.End.Add(time.Second))
	assert.Equal(t, 1, rep.Timeouts)
	assert.Empty(t, s.ExpiredTimeouts(active.End.Add(time.Second)))

	evs, err := s.QueryHistory(domain.HistoryUntimeout, 24, active.End.Add(2*time.Second))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, domain.UserID(7), evs[0].User)
	assert.True(t, evs[0].Natural())
	assert.Equal(t, domain.SystemModerator, evs[0].Moderator)
}
