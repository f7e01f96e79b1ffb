package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

type Router struct {
	s       *discordgo.Session
	guildID string
	voice   VoiceCfg

	store      *state.Store
	moderation *service.ModerationService
	membership *service.MembershipService
	reports    *service.ReportService
	confirms   *service.Confirmations
	audit      *AuditLog

	adminRoleIDs []string
	allowedUsers domain.UserSet
	exemptUsers  domain.UserSet
	rules        string

	log *slog.Logger
}

func NewRouter(s *discordgo.Session, guildID string, voice VoiceCfg, deps Deps) *Router {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		s:            s,
		guildID:      guildID,
		voice:        voice,
		store:        deps.Store,
		moderation:   deps.Moderation,
		membership:   deps.Membership,
		reports:      deps.Reports,
		confirms:     deps.Confirmations,
		audit:        deps.Audit,
		adminRoleIDs: deps.AdminRoleIDs,
		allowedUsers: deps.AllowedUsers,
		exemptUsers:  deps.ExemptUsers,
		rules:        deps.RulesMessage,
		log:          log.With("component", "discord"),
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.GuildID != r.guildID || ic.Member == nil || ic.Member.User == nil {
			return
		}
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})

	// voz -> presencia/cámara
	r.s.AddHandler(r.onVoiceStateUpdate)
	r.s.AddHandler(r.onGuildCreate)

	// membresía -> historial
	r.s.AddHandler(r.onMemberAdd)
	r.s.AddHandler(r.onMemberRemove)
	r.s.AddHandler(r.onMemberUpdate)
	r.s.AddHandler(r.onBanAdd)
	r.s.AddHandler(r.onBanRemove)
}
