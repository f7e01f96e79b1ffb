package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func TestOnEnterIsIdempotent(t *testing.T) {
	s := newTestStore(testConfig())

	assert.True(t, s.OnEnter(1, at(0)))
	assert.False(t, s.OnEnter(1, at(5)))
	assert.Equal(t, 1, s.OpenSessions())

	assert.True(t, s.OnLeave(1, at(60)))
	assert.Equal(t, 0, s.OpenSessions())

	// la sesión cuenta desde la primera entrada
	assert.Equal(t, time.Minute, s.SnapshotTotals(at(60), nil)[1])
}

func TestOnLeaveAddsExactDuration(t *testing.T) {
	s := newTestStore(testConfig())

	s.OnEnter(1, at(10))
	s.OnLeave(1, at(100))
	s.OnEnter(1, at(200))
	s.OnLeave(1, at(230))

	totals := s.SnapshotTotals(at(500), nil)
	assert.Equal(t, 120*time.Second, totals[1])
	assert.Equal(t, []Session{{Start: at(10), End: at(100)}, {Start: at(200), End: at(230)}}, s.UserSessions(1))
	assert.False(t, s.IsPresent(1))
}

func TestOnLeaveWithoutSessionIsNoop(t *testing.T) {
	s := newTestStore(testConfig())
	assert.False(t, s.OnLeave(9, at(10)))
	assert.Empty(t, s.SnapshotTotals(at(10), nil))
}

func TestSnapshotIncludesOpenSessionWithoutMutating(t *testing.T) {
	s := newTestStore(testConfig())

	s.OnEnter(1, at(0))
	s.OnLeave(1, at(30))
	s.OnEnter(1, at(100))

	assert.Equal(t, 80*time.Second, s.SnapshotTotals(at(150), nil)[1])
	assert.Equal(t, 130*time.Second, s.SnapshotTotals(at(200), nil)[1])

	// al salir no se cuenta dos veces lo que ya se mostró
	s.OnLeave(1, at(200))
	assert.Equal(t, 130*time.Second, s.SnapshotTotals(at(900), nil)[1])
}

func TestQueryTopDurationOrderingAndExclusion(t *testing.T) {
	s := newTestStore(testConfig())

	s.OnEnter(3, at(0))
	s.OnLeave(3, at(50))
	s.OnEnter(2, at(0))
	s.OnLeave(2, at(50))
	s.OnEnter(5, at(0))
	s.OnLeave(5, at(500))
	s.OnEnter(4, at(90)) // abierta: 10s al momento de consultar

	top := s.QueryTopDuration(10, domain.NewUserSet(5), at(100))
	assert.Len(t, top, 3)
	assert.Equal(t, domain.UserID(2), top[0].User)
	assert.Equal(t, domain.UserID(3), top[1].User)
	assert.Equal(t, domain.UserID(4), top[2].User)
	assert.Equal(t, 10*time.Second, top[2].Total)
	assert.True(t, top[2].Online)

	for _, e := range s.QueryTopDuration(10, domain.NewUserSet(5), at(100)) {
		assert.NotEqual(t, domain.UserID(5), e.User)
	}

	assert.Len(t, s.QueryTopDuration(1, nil, at(100)), 1)
	assert.Equal(t, domain.UserID(5), s.QueryTopDuration(1, nil, at(100))[0].User)
}

func TestPresenceKeepsIdentity(t *testing.T) {
	s := newTestStore(testConfig())
	_, err := s.OnPresenceChanged(Presence{User: 1, Username: "ana", DisplayName: "Ana", InMonitored: true, CameraOn: true}, at(0))
	assert.NoError(t, err)

	top := s.QueryTopDuration(1, nil, at(10))
	assert.Equal(t, "ana", top[0].Username)
	assert.Equal(t, "Ana", top[0].DisplayName)
}

func TestUntrackedChannelModeratesWithoutCountingTime(t *testing.T) {
	s := newTestStore(testConfig())
	alt := func(u domain.UserID, cam bool) Presence {
		return Presence{User: u, InMonitored: true, Untracked: true, CameraOn: cam}
	}

	// entra al principal, pasa al alternativo y vuelve
	_, _ = s.OnPresenceChanged(presence(1, true, true), at(0))
	_, _ = s.OnPresenceChanged(alt(1, true), at(60))
	assert.True(t, s.IsPresent(1))
	assert.Equal(t, 0, s.OpenSessions())
	_, _ = s.OnPresenceChanged(presence(1, true, true), at(600))
	_, _ = s.OnPresenceChanged(presence(1, false, false), at(630))

	assert.Equal(t, 90*time.Second, s.SnapshotTotals(at(700), nil)[1])
	assert.Len(t, s.UserSessions(1), 2)

	// cambiar de canal no es una entrada nueva: apagar la cámara en el
	// alternativo abre la gracia igual
	_, _ = s.OnPresenceChanged(alt(2, true), at(0))
	_, _ = s.OnPresenceChanged(alt(2, false), at(10))
	assert.True(t, s.InGrace(2))
	_, _ = s.OnPresenceChanged(presence(2, true, false), at(12))
	require.Len(t, s.EscalateDue(at(25)), 1)
	_, has := s.SnapshotTotals(at(30), nil)[2]
	assert.True(t, has)
}
