package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

const memberEventTimeout = 30 * time.Second

func (r *Router) onMemberAdd(s *discordgo.Session, ev *discordgo.GuildMemberAdd) {
	if ev.GuildID != r.guildID {
		return
	}
	m, ok := toMember(ev.Member)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), memberEventTimeout)
	defer cancel()
	if err := r.membership.Joined(ctx, m); err != nil {
		r.log.Warn("member join", "user", m.User, "err", err)
	}
}

func (r *Router) onMemberRemove(s *discordgo.Session, ev *discordgo.GuildMemberRemove) {
	if ev.GuildID != r.guildID {
		return
	}
	m, ok := toMember(ev.Member)
	if !ok {
		return
	}
	// el gateway no trae roles en el remove; usamos el cache si todavía está
	if cached, err := s.State.Member(ev.GuildID, ev.User.ID); err == nil && len(m.Roles) == 0 {
		m.Roles = cached.Roles
		if m.DisplayName == m.Username {
			m.DisplayName = memberName(cached)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), memberEventTimeout)
	defer cancel()
	kind, err := r.membership.Removed(ctx, m)
	if err != nil {
		r.log.Warn("member remove", "user", m.User, "err", err)
		return
	}
	if kind == domain.HistoryKick {
		r.announce(fmt.Sprintf("👢 %s (%s) fue expulsado del servidor.", m.DisplayName, m.User.Mention()))
	}
}

func (r *Router) onMemberUpdate(s *discordgo.Session, ev *discordgo.GuildMemberUpdate) {
	if ev.Member == nil || ev.GuildID != r.guildID {
		return
	}
	// sólo nos interesa el cambio de timeout
	if ev.BeforeUpdate != nil && sameTime(ev.BeforeUpdate.CommunicationDisabledUntil, ev.CommunicationDisabledUntil) {
		return
	}
	m, ok := toMember(ev.Member)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), memberEventTimeout)
	defer cancel()
	r.membership.TimeoutChanged(ctx, m, ev.CommunicationDisabledUntil)
}

func (r *Router) onBanAdd(s *discordgo.Session, ev *discordgo.GuildBanAdd) {
	if ev.GuildID != r.guildID {
		return
	}
	m, ok := toUserMember(ev.User)
	if !ok {
		return
	}
	// la marca va antes de la consulta al audit log: el remove del mismo
	// usuario llega en paralelo
	r.membership.MarkBanned(m.User)

	ctx, cancel := context.WithTimeout(context.Background(), memberEventTimeout)
	defer cancel()

	var entry service.AuditEntry
	if r.audit != nil {
		if e, found, err := r.audit.FindBan(ctx, m.User, time.Now().Add(-time.Minute)); err != nil {
			r.log.Debug("audit ban", "err", err)
		} else if found {
			entry = e
		}
	}
	if err := r.membership.Banned(ctx, m, entry); err != nil {
		r.log.Warn("member ban", "user", m.User, "err", err)
		return
	}
	r.announce(fmt.Sprintf("🔨 %s (%s) fue baneado del servidor.", m.DisplayName, m.User.Mention()))
}

func (r *Router) onBanRemove(s *discordgo.Session, ev *discordgo.GuildBanRemove) {
	if ev.GuildID != r.guildID {
		return
	}
	m, ok := toUserMember(ev.User)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), memberEventTimeout)
	defer cancel()

	var entry service.AuditEntry
	if r.audit != nil {
		if e, found, err := r.audit.FindUnban(ctx, m.User, time.Now().Add(-time.Minute)); err != nil {
			r.log.Debug("audit unban", "err", err)
		} else if found {
			entry = e
		}
	}
	if err := r.membership.Unbanned(ctx, m, entry); err != nil {
		r.log.Warn("member unban", "user", m.User, "err", err)
	}
}

func sameTime(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	}
	return a.Equal(*b)
}
