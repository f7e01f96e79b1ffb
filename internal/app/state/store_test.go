package state

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AutoMute = false
	cfg.SendRules = false
	return cfg
}

func newTestStore(cfg Config) *Store {
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), t0)
}

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func kinds(ds []domain.Decision) []domain.DecisionKind {
	out := make([]domain.DecisionKind, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Kind)
	}
	return out
}

func TestNewFillsDefaults(t *testing.T) {
	s := New(Config{GraceWindow: time.Second}, nil, t0)
	assert.Equal(t, DefaultLimits(), s.Config().Limits)
	assert.True(t, s.ModerationActive())
	assert.Equal(t, t0, s.TrackingSince())
	assert.True(t, s.RecordCommand("stats", 1))
}

func TestStoreConcurrentAccess(t *testing.T) {
	cfg := DefaultConfig()
	s := newTestStore(cfg)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				u := domain.UserID(w*1000 + i%10 + 1)
				now := at(i)
				_, _ = s.OnPresenceChanged(Presence{User: u, InMonitored: i%3 != 0, CameraOn: i%2 == 0}, now)
				_, _ = s.CheckCooldown(u, domain.CooldownCommand, now)
				s.RecordCommand("stats", u)
				s.ShouldLogInvocation(u, "stats", now)
				s.EscalateDue(now)
				if i%50 == 0 {
					s.RunRetentionSweep(now)
					s.QueryTopDuration(10, nil, now)
				}
			}
		}(w)
	}
	wg.Wait()

	// nadie puede tener más de una sesión abierta: la tabla está indexada por usuario
	assert.LessOrEqual(t, s.OpenSessions(), 8*10)
	assert.Equal(t, 8*200, s.QueryAnalyticsSummary().CommandUsage[0].Count)
}
