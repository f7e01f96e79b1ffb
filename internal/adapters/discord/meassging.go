package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

func SendEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, msg string) error {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         msg,
			Flags:           discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
	if err != nil {
		slog.Warn("SendEphemeral", "err", err)
	}
	return err
}

// Defer efímero (para trabajos >3s)
func DeferEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("DeferEphemeral", "err", err)
	}
	return err
}

// ReplyEphemeral responde por followup. Las menciones se muestran pero no notifican.
func ReplyEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, content string, embeds ...*discordgo.MessageEmbed) {
	_, err := s.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content:         content,
		Embeds:          embeds,
		Flags:           discordgo.MessageFlagsEphemeral,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})

	if err != nil {
		// Fallback sólo si todavía no hay respuesta (webhook desconocido)
		var reqErr *discordgo.RESTError
		if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == 10015 {
			_ = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: content,
					Flags:   discordgo.MessageFlagsEphemeral,
					Embeds:  embeds,
				},
			})
			return
		}
		slog.Warn("ReplyEphemeral", "err", err)
	}
}

// announce publica en el canal de chat configurado, si hay uno.
func (r *Router) announce(msg string) {
	if r.voice.ChatChannelID == "" {
		return
	}
	_, err := r.s.ChannelMessageSendComplex(r.voice.ChatChannelID, &discordgo.MessageSend{
		Content:         msg,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		r.log.Warn("announce", "channel", r.voice.ChatChannelID, "err", err)
	}
}

// maxMessageLen es el límite de contenido de un mensaje de Discord.
const maxMessageLen = 2000

// ChannelPoster publica en un canal fijo, partiendo el texto si no entra en
// un solo mensaje.
type ChannelPoster struct {
	s         *discordgo.Session
	channelID string
}

func NewChannelPoster(s *discordgo.Session, channelID string) *ChannelPoster {
	return &ChannelPoster{s: s, channelID: channelID}
}

func (p *ChannelPoster) Post(ctx context.Context, msg string) error {
	for _, part := range splitMessage(msg, maxMessageLen) {
		_, err := p.s.ChannelMessageSendComplex(p.channelID, &discordgo.MessageSend{
			Content:         part,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}
	}
	return nil
}

// splitMessage corta por líneas; una línea más larga que limit se corta en runas.
func splitMessage(msg string, limit int) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, line := range strings.SplitAfter(msg, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			out = append(out, line[:cut])
			line = line[cut:]
		}
		if b.Len()+len(line) > limit {
			flush()
		}
		b.WriteString(line)
	}
	flush()
	return out
}
