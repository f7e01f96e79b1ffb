package discord

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

const (
	confirmPrefix = "confirm:"
	cancelPrefix  = "cancel:"
)

func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()

	uid, err := domain.ParseUserID(ic.Member.User.ID)
	if err != nil {
		return
	}
	res, err := r.store.CheckCooldown(uid, domain.CooldownButton, time.Now())
	if err != nil {
		return
	}
	if !res.Allowed {
		if res.ShouldWarn {
			_ = SendEphemeral(s, ic, "⏳ Esperá un segundo…")
		}
		return
	}

	var ok bool
	var key string
	switch {
	case strings.HasPrefix(data.CustomID, confirmPrefix):
		ok, key = true, strings.TrimPrefix(data.CustomID, confirmPrefix)
	case strings.HasPrefix(data.CustomID, cancelPrefix):
		key = strings.TrimPrefix(data.CustomID, cancelPrefix)
	default:
		r.log.Debug("unknown component", "custom_id", data.CustomID)
		return
	}

	// sólo admins pueden confirmar; el prompt es efímero pero igual lo chequeamos
	if !r.isAdmin(s, ic) {
		_ = SendEphemeral(s, ic, "🔒 No tienes permisos para esta acción.")
		return
	}

	msg := "⏳ Procesando…"
	if !ok {
		msg = "Cancelando…"
	}
	if !r.confirms.Resolve(key, ok) {
		msg = "⌛ Esta confirmación ya no está vigente."
	}
	// reemplaza el prompt y quita los botones
	_ = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    msg,
			Components: []discordgo.MessageComponent{},
		},
	})
}
