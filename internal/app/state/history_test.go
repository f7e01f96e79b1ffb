package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func TestRecordHistoryEventKeepsTimeOrder(t *testing.T) {
	s := newTestStore(testConfig())

	for _, sec := range []int{10, 30, 20, 5} {
		require.NoError(t, s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryJoin, User: domain.UserID(sec), At: at(sec)}))
	}
	evs, err := s.QueryHistory(domain.HistoryJoin, 1, at(60))
	require.NoError(t, err)
	require.Len(t, evs, 4)
	for i := 1; i < len(evs); i++ {
		assert.False(t, evs[i].At.Before(evs[i-1].At))
	}
}

func TestRecordHistoryEventMisuse(t *testing.T) {
	s := newTestStore(testConfig())

	err := s.RecordHistoryEvent(domain.HistoryEvent{Kind: "role_change", User: 1, At: at(0)})
	assert.ErrorIs(t, err, domain.ErrUnknownHistoryKind)

	err = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryBan, At: at(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = s.QueryHistory("role_change", 24, at(0))
	assert.ErrorIs(t, err, domain.ErrUnknownHistoryKind)
}

func TestQueryHistorySinceHours(t *testing.T) {
	s := newTestStore(testConfig())
	now := t0.Add(48 * time.Hour)

	_ = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryKick, User: 1, At: now.Add(-30 * time.Hour), Reason: "spam"})
	_ = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryKick, User: 2, At: now.Add(-2 * time.Hour)})
	_ = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryBan, User: 3, At: now.Add(-time.Hour)})

	evs, _ := s.QueryHistory(domain.HistoryKick, 24, now)
	require.Len(t, evs, 1)
	assert.Equal(t, domain.UserID(2), evs[0].User)

	evs, _ = s.QueryHistory(domain.HistoryKick, 48, now)
	assert.Len(t, evs, 2)
}

func TestHistoryHardCapBetweenSweeps(t *testing.T) {
	s := newTestStore(testConfig())
	for i := 0; i < 401; i++ {
		_ = s.RecordHistoryEvent(domain.HistoryEvent{Kind: domain.HistoryLeave, User: 1, At: at(i)})
	}
	assert.LessOrEqual(t, s.HistoryLen(domain.HistoryLeave), 400)
}
