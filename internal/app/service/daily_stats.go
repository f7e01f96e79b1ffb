package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jose-valero/camguard-bot/internal/app/state"
)

// Poster publica un mensaje en el canal de reportes.
type Poster interface {
	Post(ctx context.Context, msg string) error
}

type DailyStatsOptions struct {
	// Hora y minuto UTC del reporte.
	Hour   int
	Minute int
}

// DailyStats publica /stats una vez por día y, sólo si el reporte salió,
// reinicia las estadísticas reabriendo la sesión de quienes siguen en voz.
type DailyStats struct {
	reports    *ReportService
	moderation *ModerationService
	poster     Poster
	present    func() []state.PresentUser
	opts       DailyStatsOptions
	log        *slog.Logger
	now        func() time.Time
	after      func(time.Duration) <-chan time.Time
}

func NewDailyStats(reports *ReportService, moderation *ModerationService, poster Poster, present func() []state.PresentUser, opts DailyStatsOptions, log *slog.Logger) *DailyStats {
	if log == nil {
		log = slog.Default()
	}
	if present == nil {
		present = func() []state.PresentUser { return nil }
	}
	return &DailyStats{
		reports:    reports,
		moderation: moderation,
		poster:     poster,
		present:    present,
		opts:       opts,
		log:        log.With("component", "daily_stats"),
		now:        time.Now,
		after:      time.After,
	}
}

// Start corre hasta que ctx se cancele.
func (d *DailyStats) Start(ctx context.Context) error {
	for {
		now := d.now()
		next := nextDailyRun(now, d.opts.Hour, d.opts.Minute)
		d.log.Debug("next daily stats", "at", next)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.after(next.Sub(now)):
		}
		if err := d.run(ctx); err != nil {
			d.log.Error("daily stats", "err", err)
		}
	}
}

func (d *DailyStats) run(ctx context.Context) error {
	if err := d.poster.Post(ctx, "📅 **Reporte diario**\n\n"+d.reports.Stats()); err != nil {
		dailyStatsRuns.WithLabelValues("failed").Inc()
		if werr := d.poster.Post(ctx, "⚠️ No se pudo publicar el reporte diario. **Las estadísticas no se borran.**"); werr != nil {
			d.log.Warn("daily stats warning", "err", werr)
		}
		return fmt.Errorf("posting report: %w", err)
	}

	present := d.present()
	d.moderation.ResetStats(present)
	dailyStatsRuns.WithLabelValues("ok").Inc()
	d.log.Info("daily stats cleared", "reopened", len(present))
	if err := d.poster.Post(ctx, "✅ Estadísticas borradas automáticamente, el tracking sigue."); err != nil {
		d.log.Warn("daily stats notice", "err", err)
	}
	return nil
}

// nextDailyRun devuelve la próxima hh:mm UTC estrictamente posterior a now.
func nextDailyRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
