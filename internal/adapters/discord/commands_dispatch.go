// esta es la logica de InteractionApplicationCommand de discordgo
// aqui solo vamos a manejar logica de la interaccion del usuario y despachar a los servicios correspondientes
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/app/state"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

const confirmWindow = 30 * time.Second

// esto es basicamente mi reciver function
func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	uid, err := domain.ParseUserID(ic.Member.User.ID)
	if err != nil {
		return
	}
	log := r.log.With("cmd", cmd.Name, "user", uid)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in command", "panic", rec)
			ReplyEphemeral(s, ic, "❌ Ocurrió un error inesperado procesando el comando. Contacta con un administrador.")
		}
	}()

	now := time.Now()
	cat := domain.CooldownCommand
	if cmd.Name == "rules" {
		cat = domain.CooldownHelp
	}
	if !r.isAdmin(s, ic) {
		if r.voice.CommandChannelID != "" && ic.ChannelID != r.voice.CommandChannelID {
			_ = SendEphemeral(s, ic, fmt.Sprintf("💬 Usá los comandos en <#%s>.", r.voice.CommandChannelID))
			return
		}
		res, err := r.store.CheckCooldown(uid, cat, now)
		if err != nil {
			log.Warn("cooldown", "err", err)
			return
		}
		if !res.Allowed {
			if res.ShouldWarn {
				_ = SendEphemeral(s, ic, fmt.Sprintf("⏳ Esperá %s antes de usar otro comando.", fmtRemain(res.Remaining)))
			} else {
				// segunda vez dentro de la ventana: se ignora en silencio
				_ = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
					Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
				})
				_ = s.InteractionResponseDelete(ic.Interaction)
			}
			return
		}
	}

	if r.store.ShouldLogInvocation(uid, cmd.Name, now) {
		r.store.RecordCommand(cmd.Name, uid)
		log.Info("command")
	}

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	switch cmd.Name {

	//--> reportes, abiertos a todos
	case "times":
		limit, ok := optInt(ic, "top")
		if !ok || limit <= 0 || limit > 25 {
			limit = 10
		}
		ReplyEphemeral(s, ic, r.reports.Times(limit))

	case "stats":
		ReplyEphemeral(s, ic, r.reports.Stats())

	case "timeouts":
		ReplyEphemeral(s, ic, r.reports.Timeouts())

	case "rules":
		msg := r.rules
		if msg == "" {
			msg = "📷 En este canal la cámara tiene que estar encendida."
		}
		ReplyEphemeral(s, ic, msg)

	//--> solo admins
	case "whois":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		hours, ok := optInt(ic, "horas")
		if !ok || hours <= 0 {
			hours = 24
		}
		if hours > 168 {
			hours = 168
		}
		ReplyEphemeral(s, ic, r.reports.Whois(hours))

	case "modon", "modoff":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		msg, err := r.moderation.SetModeration(ctx, cmd.Name == "modon")
		if err != nil {
			msg = "⚠️ No se pudo cambiar la moderación: " + err.Error()
		}
		ReplyEphemeral(s, ic, msg)

	case "hush", "rhush":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		ReplyEphemeral(s, ic, r.moderation.SetHush(ctx, cmd.Name == "hush"))

	case "resetviolations":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		target, ok := optUser(ic, "usuario")
		if !ok {
			ReplyEphemeral(s, ic, "⚠️ Usuario inválido.")
			return
		}
		prev := r.store.ResetViolations(target)
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Infracciones de %s en cero (tenía %d).", target.Mention(), prev))

	//--> destructivos: piden confirmación
	case "rtimeouts":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		by := state.Remover{Name: memberName(ic.Member), ID: uid}
		r.confirm(s, ic, "¿Quitar **todos** los timeouts activos?", func(ctx context.Context) string {
			msg, err := r.moderation.RemoveAllTimeouts(ctx, by)
			if err != nil {
				return "⚠️ No se pudieron quitar los timeouts: " + err.Error()
			}
			return msg
		})

	case "clearstats":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		r.confirm(s, ic, "¿Reiniciar **todas** las estadísticas? No se puede deshacer.", func(context.Context) string {
			return r.moderation.ResetStats(r.PresentMembers())
		})
	}
}

// confirm publica los botones y espera la respuesta en otra goroutine para no
// bloquear el handler del gateway.
func (r *Router) confirm(s *discordgo.Session, ic *discordgo.InteractionCreate, question string, run func(context.Context) string) {
	key := r.confirms.Open()
	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Confirmar", Style: discordgo.DangerButton, CustomID: confirmPrefix + key},
			discordgo.Button{Label: "Cancelar", Style: discordgo.SecondaryButton, CustomID: cancelPrefix + key},
		},
	}
	_, err := s.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content:    question + fmt.Sprintf("\nTenés %d segundos.", int(confirmWindow.Seconds())),
		Components: []discordgo.MessageComponent{row},
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		r.log.Warn("confirm prompt", "err", err)
		return
	}

	go func() {
		ok, err := r.confirms.Await(context.Background(), key, confirmWindow)
		switch {
		case errors.Is(err, service.ErrConfirmTimeout):
			ReplyEphemeral(s, ic, "⌛ Se venció el tiempo, no se hizo nada.")
		case err != nil:
			r.log.Warn("confirm await", "err", err)
		case !ok:
			ReplyEphemeral(s, ic, "❎ Cancelado.")
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			ReplyEphemeral(s, ic, run(ctx))
		}
	}()
}
