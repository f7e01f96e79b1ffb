package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	discordrouter "github.com/jose-valero/camguard-bot/internal/adapters/discord"
	"github.com/jose-valero/camguard-bot/internal/adapters/httpapi"
	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/infra/config"
	"github.com/jose-valero/camguard-bot/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger (opcional)
	var ledger service.Ledger
	if cfg.DatabaseURL != "" {
		db, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := storage.Migrate(ctx, db, logger); err != nil {
			log.Fatal("migrate:", err)
		}
		ledger = storage.NewLedgerRepo(db)
		logger.Info("✅ ledger listo y migrado")
	} else {
		logger.Info("DATABASE_URL vacío, sin ledger")
	}

	// Estado en memoria
	store := state.New(state.Config{
		GraceWindow:        cfg.CameraGrace,
		SecondTimeout:      cfg.SecondTimeout,
		ThirdTimeout:       cfg.ThirdTimeout,
		CommandCooldown:    cfg.CommandCooldown,
		HelpCooldown:       cfg.HelpCooldown,
		AutoMute:           cfg.AutoMute,
		SendRules:          cfg.SendRules,
		ModerationDisabled: cfg.ModerationDisabled,
	}, logger, time.Now())

	// Discord session
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentGuildModeration
	s.StateEnabled = true

	voice := discordrouter.VoiceCfg{
		MonitoredChannelIDs: cfg.MonitoredChannels(),
		TrackedChannelID:    cfg.StreamingVC,
		HoldingChannelID:    cfg.PunishmentVC,
		ChatChannelID:       cfg.ChatChannelID,
		CommandChannelID:    cfg.CommandChannelID,
	}
	audit := discordrouter.NewAuditLog(s, cfg.DiscordGuild)

	// Services
	moderation := service.NewModerationService(store, discordrouter.NewEnforcer(s, cfg.DiscordGuild, voice), ledger,
		service.ModerationOptions{
			RulesMessage:    cfg.RulesMessage,
			EnforceInterval: cfg.EnforceInterval,
		}, logger)
	membership := service.NewMembershipService(store, audit, ledger, service.MembershipOptions{}, logger)
	reports := service.NewReportService(store, cfg.StatsExcluded)
	sweeper := service.NewSweeper(store, cfg.SweepInterval, logger)

	// Router (handlers antes de Open para no perder el GuildCreate inicial)
	r := discordrouter.NewRouter(s, cfg.DiscordGuild, voice, discordrouter.Deps{
		Store:         store,
		Moderation:    moderation,
		Membership:    membership,
		Reports:       reports,
		Confirmations: service.NewConfirmations(),
		Audit:         audit,
		AdminRoleIDs:  cfg.AdminRoleIDs,
		AllowedUsers:  cfg.AllowedUsers,
		ExemptUsers:   cfg.ExemptUsers,
		RulesMessage:  cfg.RulesMessage,
		Log:           logger,
	})
	r.Handlers()

	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	logger.Info("✅ conectado", "user", s.State.User.Username, "id", s.State.User.ID)

	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	logger.Info("✅ comandos registrados", "guild", cfg.DiscordGuild, "monitored", voice.MonitoredChannelIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return moderation.Run(gctx) })
	g.Go(func() error { return sweeper.Start(gctx) })
	g.Go(func() error { return httpapi.New(store, cfg.StatsExcluded, logger).Start(gctx, cfg.HTTPAddr) })
	if cfg.StatsChannelID != "" {
		daily := service.NewDailyStats(reports, moderation, discordrouter.NewChannelPoster(s, cfg.StatsChannelID), r.PresentMembers,
			service.DailyStatsOptions{Hour: cfg.StatsHourUTC, Minute: cfg.StatsMinuteUTC}, logger)
		g.Go(func() error { return daily.Start(gctx) })
	} else {
		logger.Info("sin canal para el reporte diario")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("bye")
}
