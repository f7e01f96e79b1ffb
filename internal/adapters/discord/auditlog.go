package discord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

const auditTimeoutKey = "communication_disabled_until"

var _ service.AuditLog = (*AuditLog)(nil)

// AuditLog busca en el audit log del server quién hizo qué.
type AuditLog struct {
	s       *discordgo.Session
	guildID string
}

func NewAuditLog(s *discordgo.Session, guildID string) *AuditLog {
	return &AuditLog{s: s, guildID: guildID}
}

func (a *AuditLog) FindKick(ctx context.Context, user domain.UserID, since time.Time) (service.AuditEntry, bool, error) {
	return a.find(ctx, discordgo.AuditLogActionMemberKick, user, since, nil)
}

func (a *AuditLog) FindBan(ctx context.Context, user domain.UserID, since time.Time) (service.AuditEntry, bool, error) {
	return a.find(ctx, discordgo.AuditLogActionMemberBanAdd, user, since, nil)
}

func (a *AuditLog) FindUnban(ctx context.Context, user domain.UserID, since time.Time) (service.AuditEntry, bool, error) {
	return a.find(ctx, discordgo.AuditLogActionMemberBanRemove, user, since, nil)
}

// FindTimeoutApplied busca un member update que haya puesto
// communication_disabled_until.
func (a *AuditLog) FindTimeoutApplied(ctx context.Context, user domain.UserID, since time.Time) (service.AuditEntry, bool, error) {
	return a.find(ctx, discordgo.AuditLogActionMemberUpdate, user, since, timeoutChange(false))
}

// FindTimeoutRemoval busca un member update que haya dejado
// communication_disabled_until en null.
func (a *AuditLog) FindTimeoutRemoval(ctx context.Context, user domain.UserID, since time.Time) (service.AuditEntry, bool, error) {
	return a.find(ctx, discordgo.AuditLogActionMemberUpdate, user, since, timeoutChange(true))
}

// IsBanned pregunta por el ban directamente; 404 = no está baneado.
func (a *AuditLog) IsBanned(ctx context.Context, user domain.UserID) (bool, error) {
	_, err := a.s.GuildBan(a.guildID, user.String(), discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func timeoutChange(cleared bool) func(*discordgo.AuditLogEntry) bool {
	return func(e *discordgo.AuditLogEntry) bool {
		for _, c := range e.Changes {
			if c.Key != nil && string(*c.Key) == auditTimeoutKey && (c.NewValue == nil) == cleared {
				return true
			}
		}
		return false
	}
}

func (a *AuditLog) find(ctx context.Context, action discordgo.AuditLogAction, user domain.UserID, since time.Time, match func(*discordgo.AuditLogEntry) bool) (service.AuditEntry, bool, error) {
	log, err := a.s.GuildAuditLog(a.guildID, "", "", int(action), 10, discordgo.WithContext(ctx))
	if err != nil {
		return service.AuditEntry{}, false, err
	}

	target := user.String()
	for _, e := range log.AuditLogEntries {
		if e == nil || e.TargetID != target {
			continue
		}
		at, err := discordgo.SnowflakeTimestamp(e.ID)
		if err != nil || at.Before(since) {
			continue
		}
		if match != nil && !match(e) {
			continue
		}

		entry := service.AuditEntry{Reason: e.Reason, At: at}
		if id, err := domain.ParseUserID(e.UserID); err == nil {
			entry.ModeratorID = id
		}
		entry.Moderator = e.UserID
		for _, u := range log.Users {
			if u != nil && u.ID == e.UserID {
				entry.Moderator = u.Username
				break
			}
		}
		return entry, true, nil
	}
	return service.AuditEntry{}, false, nil
}
