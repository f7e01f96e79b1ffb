package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func TestCheckCooldownWarnsOncePerWindow(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(testConfig()) // command cooldown = 3s
	u := domain.UserID(42)

	r, err := s.CheckCooldown(u, domain.CooldownCommand, at(0))
	assert.NoError(err)
	assert.True(r.Allowed)

	r, _ = s.CheckCooldown(u, domain.CooldownCommand, at(1))
	assert.False(r.Allowed)
	assert.True(r.ShouldWarn)
	assert.Equal(2*time.Second, r.Remaining)

	r, _ = s.CheckCooldown(u, domain.CooldownCommand, at(2))
	assert.False(r.Allowed)
	assert.False(r.ShouldWarn)
	assert.Equal(time.Second, r.Remaining)

	// vence la ventana: se vuelve a armar
	r, _ = s.CheckCooldown(u, domain.CooldownCommand, at(3))
	assert.True(r.Allowed)

	r, _ = s.CheckCooldown(u, domain.CooldownCommand, at(4))
	assert.False(r.Allowed)
	assert.True(r.ShouldWarn)
}

func TestCheckCooldownCategoriesAreIndependent(t *testing.T) {
	s := newTestStore(testConfig())
	u := domain.UserID(7)

	r, _ := s.CheckCooldown(u, domain.CooldownCommand, at(0))
	assert.True(t, r.Allowed)
	r, _ = s.CheckCooldown(u, domain.CooldownButton, at(0))
	assert.True(t, r.Allowed)
	r, _ = s.CheckCooldown(u, domain.CooldownHelp, at(0))
	assert.True(t, r.Allowed)

	r, _ = s.CheckCooldown(u, domain.CooldownHelp, at(100))
	assert.False(t, r.Allowed)
	assert.Equal(t, 20*time.Second, r.Remaining)

	r, _ = s.CheckCooldown(domain.UserID(8), domain.CooldownHelp, at(100))
	assert.True(t, r.Allowed)
}

func TestCheckCooldownMisuse(t *testing.T) {
	s := newTestStore(testConfig())

	_, err := s.CheckCooldown(0, domain.CooldownCommand, at(0))
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = s.CheckCooldown(1, domain.CooldownCategory("reaction"), at(0))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestCheckCooldownZeroWindowNeverBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.CommandCooldown = 0
	s := newTestStore(cfg)
	for i := 0; i < 3; i++ {
		r, err := s.CheckCooldown(1, domain.CooldownCommand, at(0))
		assert.NoError(t, err)
		assert.True(t, r.Allowed)
	}
}

func TestShouldLogInvocationBuckets(t *testing.T) {
	s := newTestStore(testConfig())
	base := time.Unix(1000, 0)

	assert.True(t, s.ShouldLogInvocation(1, "stats", base))
	assert.False(t, s.ShouldLogInvocation(1, "stats", base.Add(9*time.Second)))
	assert.True(t, s.ShouldLogInvocation(2, "stats", base))
	assert.True(t, s.ShouldLogInvocation(1, "times", base))
	assert.True(t, s.ShouldLogInvocation(1, "stats", base.Add(10*time.Second)))
}
