package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUserID(t *testing.T) {
	assert := assert.New(t)

	u, err := ParseUserID(" 123456789012345678 ")
	assert.NoError(err)
	assert.Equal(UserID(123456789012345678), u)
	assert.Equal("<@123456789012345678>", u.Mention())

	for _, raw := range []string{"", "0", "abc", "-4", "12x"} {
		_, err := ParseUserID(raw)
		assert.True(errors.Is(err, ErrInvalidUser), raw)
	}
}

func TestParseCooldownCategory(t *testing.T) {
	c, err := ParseCooldownCategory("help")
	assert.NoError(t, err)
	assert.Equal(t, CooldownHelp, c)

	_, err = ParseCooldownCategory("reaction")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestParseHistoryKind(t *testing.T) {
	for _, k := range HistoryKinds {
		got, err := ParseHistoryKind(string(k))
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseHistoryKind("role_change")
	assert.ErrorIs(t, err, ErrUnknownHistoryKind)
}

func TestActiveTimeoutRemaining(t *testing.T) {
	now := time.Unix(1000, 0)
	to := ActiveTimeout{End: now.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, to.Remaining(now))
	assert.Equal(t, time.Duration(0), to.Remaining(now.Add(time.Hour)))
}

func TestHistoryEventNatural(t *testing.T) {
	assert.True(t, HistoryEvent{Kind: HistoryUntimeout, Moderator: SystemModerator}.Natural())
	assert.False(t, HistoryEvent{Kind: HistoryUntimeout, Moderator: "alice"}.Natural())
	assert.False(t, HistoryEvent{Kind: HistoryBan, Moderator: SystemModerator}.Natural())
}
