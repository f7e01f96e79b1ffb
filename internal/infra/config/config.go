package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

type Config struct {
	DiscordToken string
	DiscordGuild string
	DatabaseURL  string // opcional, vacío = sin ledger
	HTTPAddr     string // opcional, default :8080
	LogLevel     slog.Level

	// canales
	StreamingVC      string // canal vigilado
	AltVC            string // segundo canal vigilado (opcional)
	PunishmentVC     string // a donde se mueve al infractor
	ChatChannelID    string
	CommandChannelID string
	// StatsChannelID recibe el reporte diario; vacío = ChatChannelID, y sin
	// ninguno de los dos no hay reporte diario.
	StatsChannelID string
	StatsHourUTC   int
	StatsMinuteUTC int

	AllowedUsers  domain.UserSet
	AdminRoleIDs  []string
	ExemptUsers   domain.UserSet
	StatsExcluded domain.UserSet

	// política
	CameraGrace     time.Duration
	SecondTimeout   time.Duration
	ThirdTimeout    time.Duration
	CommandCooldown time.Duration
	HelpCooldown    time.Duration
	EnforceInterval time.Duration
	SweepInterval   time.Duration

	AutoMute           bool
	SendRules          bool
	ModerationDisabled bool
	RulesMessage       string
}

// Error es una variable de entorno faltante o mal formada.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("config %s: %s", e.Field, e.Message) }

const defaultRules = "📷 **Reglas del canal**\n" +
	"• La cámara tiene que estar encendida mientras estés en el canal.\n" +
	"• Tenés unos segundos de gracia al entrar o si se te apaga.\n" +
	"• 1ra vez: te movemos de canal. 2da: timeout corto. 3ra: timeout largo."

func Load() (Config, error) {
	cfg := Config{
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuild:     os.Getenv("DISCORD_GUILD_ID"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		StreamingVC:      os.Getenv("STREAMING_VC_ID"),
		AltVC:            os.Getenv("ALT_VC_ID"),
		PunishmentVC:     os.Getenv("PUNISHMENT_VC_ID"),
		ChatChannelID:    os.Getenv("CHAT_CHANNEL_ID"),
		CommandChannelID: os.Getenv("COMMAND_CHANNEL_ID"),
		StatsChannelID:   os.Getenv("AUTO_STATS_CHAN"),
		AdminRoleIDs:     splitCSV(os.Getenv("ADMIN_ROLE_IDS")),
		RulesMessage:     os.Getenv("RULES_MESSAGE"),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.RulesMessage == "" {
		cfg.RulesMessage = defaultRules
	}
	if cfg.StatsChannelID == "" {
		cfg.StatsChannelID = cfg.ChatChannelID
	}

	for _, req := range []struct{ name, val string }{
		{"DISCORD_BOT_TOKEN", cfg.DiscordToken},
		{"DISCORD_GUILD_ID", cfg.DiscordGuild},
		{"STREAMING_VC_ID", cfg.StreamingVC},
		{"PUNISHMENT_VC_ID", cfg.PunishmentVC},
	} {
		if req.val == "" {
			return Config{}, &Error{Field: req.name, Message: "faltante"}
		}
	}

	var err error
	if cfg.LogLevel, err = level("LOG_LEVEL"); err != nil {
		return Config{}, err
	}
	if cfg.AllowedUsers, err = users("ALLOWED_USERS"); err != nil {
		return Config{}, err
	}
	if cfg.ExemptUsers, err = users("EXEMPT_USER_IDS"); err != nil {
		return Config{}, err
	}
	if cfg.StatsExcluded, err = users("STATS_EXCLUDED_USERS"); err != nil {
		return Config{}, err
	}

	for _, d := range []struct {
		name string
		def  int
		dst  *time.Duration
	}{
		{"CAMERA_OFF_ALLOWED_TIME", 15, &cfg.CameraGrace},
		{"TIMEOUT_DURATION_SECOND_VIOLATION", 300, &cfg.SecondTimeout},
		{"TIMEOUT_DURATION_THIRD_VIOLATION", 900, &cfg.ThirdTimeout},
		{"COMMAND_COOLDOWN", 3, &cfg.CommandCooldown},
		{"HELP_COOLDOWN", 120, &cfg.HelpCooldown},
		{"ENFORCE_INTERVAL", 5, &cfg.EnforceInterval},
		{"SWEEP_INTERVAL", 300, &cfg.SweepInterval},
	} {
		if *d.dst, err = seconds(d.name, d.def); err != nil {
			return Config{}, err
		}
	}
	if cfg.EnforceInterval == 0 || cfg.SweepInterval == 0 {
		return Config{}, &Error{Field: "ENFORCE_INTERVAL/SWEEP_INTERVAL", Message: "debe ser mayor a 0"}
	}

	if cfg.StatsHourUTC, err = clock("AUTO_STATS_HOUR_UTC", 5, 23); err != nil {
		return Config{}, err
	}
	if cfg.StatsMinuteUTC, err = clock("AUTO_STATS_MINUTE_UTC", 0, 59); err != nil {
		return Config{}, err
	}

	if cfg.AutoMute, err = boolean("AUTO_MUTE_ON_CAMERA_OFF", true); err != nil {
		return Config{}, err
	}
	if cfg.SendRules, err = boolean("SEND_RULES_ON_JOIN", true); err != nil {
		return Config{}, err
	}
	if cfg.ModerationDisabled, err = boolean("VC_MODERATION_PERMANENTLY_DISABLED", false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MonitoredChannels: el canal principal y el alternativo si hay.
func (c Config) MonitoredChannels() []string {
	out := []string{c.StreamingVC}
	if c.AltVC != "" && c.AltVC != c.StreamingVC {
		out = append(out, c.AltVC)
	}
	return out
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func users(name string) (domain.UserSet, error) {
	set := domain.UserSet{}
	for _, raw := range splitCSV(os.Getenv(name)) {
		id, err := domain.ParseUserID(raw)
		if err != nil {
			return nil, &Error{Field: name, Message: err.Error()}
		}
		set[id] = struct{}{}
	}
	return set, nil
}

func seconds(name string, def int) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &Error{Field: name, Message: fmt.Sprintf("segundos inválidos %q", raw)}
	}
	return time.Duration(n) * time.Second, nil
}

// clock lee una hora o minuto en [0, max].
func clock(name string, def, hi int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > hi {
		return 0, &Error{Field: name, Message: fmt.Sprintf("valor inválido %q (0-%d)", raw, hi)}
	}
	return n, nil
}

func boolean(name string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Field: name, Message: fmt.Sprintf("booleano inválido %q", raw)}
	}
	return v, nil
}

func level(name string) (slog.Level, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(raw)); err != nil {
		return 0, &Error{Field: name, Message: fmt.Sprintf("nivel inválido %q", raw)}
	}
	return l, nil
}
