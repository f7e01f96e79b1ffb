package discord

import (
	"log/slog"

	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

// VoiceCfg delimita qué canales se vigilan y a dónde se mueve al infractor.
type VoiceCfg struct {
	MonitoredChannelIDs []string
	// TrackedChannelID es el único vigilado que suma tiempo; vacío = todos suman.
	TrackedChannelID string
	HoldingChannelID string
	// ChatChannelID recibe los avisos de kicks/bans (opcional).
	ChatChannelID string
	// CommandChannelID limita los comandos de no-admins a ese canal (opcional).
	CommandChannelID string
}

func (v VoiceCfg) monitored(channelID string) bool {
	if channelID == "" {
		return false
	}
	for _, id := range v.MonitoredChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

func (v VoiceCfg) untracked(channelID string) bool {
	return v.TrackedChannelID != "" && channelID != v.TrackedChannelID
}

// Deps agrupa lo que el router despacha. Todos son obligatorios salvo Log.
type Deps struct {
	Store         *state.Store
	Moderation    *service.ModerationService
	Membership    *service.MembershipService
	Reports       *service.ReportService
	Confirmations *service.Confirmations
	Audit         *AuditLog

	AdminRoleIDs []string
	// AllowedUsers son admins del bot y nunca se moderan.
	AllowedUsers domain.UserSet
	// ExemptUsers: cuentas de servicio (bots de música, etc).
	ExemptUsers domain.UserSet
	// RulesMessage es lo que responde /rules.
	RulesMessage string

	Log *slog.Logger
}
