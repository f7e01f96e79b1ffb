package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/camguard-bot/internal/app/service"
	"github.com/jose-valero/camguard-bot/internal/domain"
)

func fmtRemain(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second).Seconds())
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return 0, false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionInteger {
			return int(o.IntValue()), true
		}
	}
	return 0, false
}

func optUser(ic *discordgo.InteractionCreate, name string) (domain.UserID, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return 0, false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionUser {
			// el valor viene como snowflake en string
			raw, _ := o.Value.(string)
			id, err := domain.ParseUserID(raw)
			return id, err == nil
		}
	}
	return 0, false
}

// memberName: apodo del server, si no el global, si no el username.
func memberName(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func toMember(m *discordgo.Member) (service.Member, bool) {
	if m == nil || m.User == nil {
		return service.Member{}, false
	}
	id, err := domain.ParseUserID(m.User.ID)
	if err != nil {
		return service.Member{}, false
	}
	return service.Member{
		User:        id,
		Username:    m.User.Username,
		DisplayName: memberName(m),
		Roles:       m.Roles,
	}, true
}

func toUserMember(u *discordgo.User) (service.Member, bool) {
	if u == nil {
		return service.Member{}, false
	}
	return toMember(&discordgo.Member{User: u})
}
