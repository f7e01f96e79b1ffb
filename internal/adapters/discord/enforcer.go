package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

// Enforcer ejecuta las decisiones de moderación contra la API de Discord.
type Enforcer struct {
	s       *discordgo.Session
	guildID string
	holding string
}

func NewEnforcer(s *discordgo.Session, guildID string, voice VoiceCfg) *Enforcer {
	return &Enforcer{s: s, guildID: guildID, holding: voice.HoldingChannelID}
}

// MoveToHolding mueve al usuario al canal de castigo. Sin canal configurado lo desconecta.
func (e *Enforcer) MoveToHolding(ctx context.Context, user domain.UserID) error {
	var target *string
	if e.holding != "" {
		target = &e.holding
	}
	return e.s.GuildMemberMove(e.guildID, user.String(), target, discordgo.WithContext(ctx))
}

func (e *Enforcer) Timeout(ctx context.Context, user domain.UserID, until time.Time, reason string) error {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	var u *time.Time
	if !until.IsZero() {
		u = &until
	}
	return e.s.GuildMemberTimeout(e.guildID, user.String(), u, opts...)
}

// SetMuted silencia y ensordece a la vez (server mute + deafen).
func (e *Enforcer) SetMuted(ctx context.Context, user domain.UserID, muted bool) error {
	_, err := e.s.GuildMemberEdit(e.guildID, user.String(), voiceSuppression(muted), discordgo.WithContext(ctx))
	return err
}

func voiceSuppression(on bool) *discordgo.GuildMemberParams {
	return &discordgo.GuildMemberParams{Mute: &on, Deaf: &on}
}

func (e *Enforcer) SendDM(ctx context.Context, user domain.UserID, msg string) error {
	ch, err := e.s.UserChannelCreate(user.String(), discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = e.s.ChannelMessageSend(ch.ID, msg, discordgo.WithContext(ctx))
	return err
}
