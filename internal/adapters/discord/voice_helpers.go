package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

func (r *Router) memberFor(guildID, userID string, m *discordgo.Member) *discordgo.Member {
	if m != nil && m.User != nil {
		return m
	}
	if cached, err := r.s.State.Member(guildID, userID); err == nil {
		return cached
	}
	return nil
}

func (r *Router) presenceFrom(vs *discordgo.VoiceState) (state.Presence, bool) {
	uid, err := domain.ParseUserID(vs.UserID)
	if err != nil {
		return state.Presence{}, false
	}
	p := state.Presence{
		User:        uid,
		InMonitored: r.voice.monitored(vs.ChannelID),
		Untracked:   r.voice.untracked(vs.ChannelID),
		CameraOn:    vs.SelfVideo,
	}
	var roles []string
	if m := r.memberFor(vs.GuildID, vs.UserID, vs.Member); m != nil {
		p.Username = m.User.Username
		p.DisplayName = memberName(m)
		roles = m.Roles
		if m.User.Bot {
			p.Exempt = true
		}
	}
	if r.isExempt(uid, roles) {
		p.Exempt = true
	}
	return p, true
}

func (r *Router) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.VoiceState == nil || vs.GuildID != r.guildID {
		return
	}
	p, ok := r.presenceFrom(vs.VoiceState)
	if !ok {
		return
	}
	// ni antes ni ahora en un canal vigilado: nada que hacer
	if !p.InMonitored && !r.store.IsPresent(p.User) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.moderation.HandlePresence(ctx, p); err != nil {
		r.log.Warn("presence", "user", p.User, "err", err)
	}
}

// onGuildCreate sincroniza a quienes ya estaban en voz cuando arrancó el bot.
func (r *Router) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.ID != r.guildID {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n := 0
	for _, vs := range g.VoiceStates {
		if !r.voice.monitored(vs.ChannelID) {
			continue
		}
		if vs.GuildID == "" {
			vs.GuildID = g.ID
		}
		p, ok := r.presenceFrom(vs)
		if !ok {
			continue
		}
		if err := r.moderation.HandlePresence(ctx, p); err != nil {
			r.log.Warn("presence sync", "user", p.User, "err", err)
			continue
		}
		n++
	}
	r.log.Info("voice presence synced", "guild", g.ID, "present", n)
}

// PresentMembers lista quienes están ahora en los canales vigilados.
func (r *Router) PresentMembers() []state.PresentUser {
	g, err := r.s.State.Guild(r.guildID)
	if err != nil {
		return nil
	}
	r.s.State.RLock()
	states := append([]*discordgo.VoiceState(nil), g.VoiceStates...)
	r.s.State.RUnlock()

	out := make([]state.PresentUser, 0, len(states))
	for _, vs := range states {
		if !r.voice.monitored(vs.ChannelID) {
			continue
		}
		uid, err := domain.ParseUserID(vs.UserID)
		if err != nil {
			continue
		}
		pu := state.PresentUser{User: uid, Untracked: r.voice.untracked(vs.ChannelID)}
		if m := r.memberFor(r.guildID, vs.UserID, vs.Member); m != nil {
			pu.Username = m.User.Username
			pu.DisplayName = memberName(m)
		}
		out = append(out, pu)
	}
	return out
}
