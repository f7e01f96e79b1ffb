package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func (r *Router) requireAdminOrRoles(s *discordgo.Session, ic *discordgo.InteractionCreate) bool {
	if r.isAdmin(s, ic) {
		return true
	}
	ReplyEphemeral(s, ic, "🔒 No tienes permisos para esta acción.")
	return false
}

func (r *Router) isAdmin(s *discordgo.Session, ic *discordgo.InteractionCreate) bool {
	if ic.Member == nil || ic.Member.User == nil {
		return false
	}

	// ALLOWED_USERS
	if id, err := domain.ParseUserID(ic.Member.User.ID); err == nil && r.allowedUsers.Has(id) {
		return true
	}

	// Owner
	if g, _ := s.State.Guild(ic.GuildID); g != nil && ic.Member.User.ID == g.OwnerID {
		return true
	}

	// Administrator bit (viene calculado en la interacción)
	if ic.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	// Roles explícitos del bot
	return hasAnyRole(ic.Member.Roles, r.adminRoleIDs)
}

func hasAnyRole(have, want []string) bool {
	if len(want) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(have))
	for _, rid := range have {
		set[rid] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

// isExempt: admins del bot y cuentas de servicio no se moderan.
func (r *Router) isExempt(user domain.UserID, roles []string) bool {
	return r.allowedUsers.Has(user) || r.exemptUsers.Has(user) || hasAnyRole(roles, r.adminRoleIDs)
}
