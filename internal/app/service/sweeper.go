package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jose-valero/camguard-bot/internal/app/state"
)

// Sweeper corre la poda de retención del store cada interval.
type Sweeper struct {
	store    *state.Store
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewSweeper(store *state.Store, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, log: log.With("component", "sweeper"), now: time.Now}
}

// Start corre hasta que ctx se cancele.
func (sw *Sweeper) Start(ctx context.Context) error {
	t := time.NewTicker(sw.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			sw.collect()
		}
	}
}

func (sw *Sweeper) collect() state.SweepReport {
	rep := sw.store.RunRetentionSweep(sw.now())
	for store, n := range map[string]int{
		"cooldowns": rep.Cooldowns,
		"dedup":     rep.DedupCleared,
		"sessions":  rep.Sessions,
		"durations": rep.DurationRecords,
		"timers":    rep.CameraTimers,
		"timeouts":  rep.Timeouts,
		"history":   rep.History,
		"pending":   rep.Pending,
		"user_sets": rep.UserSets,
		"commands":  rep.Commands,
		"users":     rep.Users,
	} {
		if n > 0 {
			sweptEntries.WithLabelValues(store).Add(float64(n))
		}
	}
	openSessions.Set(float64(sw.store.OpenSessions()))
	return rep
}
