// Package state guarda todo el estado en memoria del bot de moderación.
//
// Hay cuatro dominios de lock independientes y, cuando una operación necesita
// más de uno, siempre se toman en este orden:
//
//	cooldown -> presence -> moderation -> analytics
//
// Ningún método hace I/O ni espera a nada externo con un lock tomado: las
// acciones remotas salen como domain.Decision y se ejecutan afuera.
package state

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

var ErrModerationLocked = errors.New("moderation permanently disabled")

type Limits struct {
	HistoryWindow time.Duration // ventana de historial y sesiones
	HistoryCap    int           // máximo por lista de historial
	MaxCommands   int
	MaxUsers      int
	DedupCap      int
	DedupBucket   time.Duration
	UserSetCap    int // rules/dm sets, se limpian enteros
	BanSetCap     int
	BanMemory     time.Duration // cuánto recordamos un ban para clasificar el remove
	RemovalGuard  time.Duration
	PendingTTL    time.Duration // decisiones sin ConfirmAction
}

type Config struct {
	GraceWindow   time.Duration // CAMERA_OFF_ALLOWED_TIME
	SecondTimeout time.Duration
	ThirdTimeout  time.Duration

	CommandCooldown time.Duration
	HelpCooldown    time.Duration

	AutoMute           bool
	SendRules          bool
	ModerationDisabled bool

	// Comandos que cuentan para analytics; el resto se ignora.
	AllowedCommands []string

	Limits Limits
}

func DefaultLimits() Limits {
	return Limits{
		HistoryWindow: 7 * 24 * time.Hour,
		HistoryCap:    200,
		MaxCommands:   100,
		MaxUsers:      1000,
		DedupCap:      5000,
		DedupBucket:   10 * time.Second,
		UserSetCap:    1000,
		BanSetCap:     200,
		BanMemory:     5 * time.Minute,
		RemovalGuard:  30 * time.Second,
		PendingTTL:    10 * time.Minute,
	}
}

func DefaultConfig() Config {
	return Config{
		GraceWindow:     15 * time.Second,
		SecondTimeout:   300 * time.Second,
		ThirdTimeout:    900 * time.Second,
		CommandCooldown: 3 * time.Second,
		HelpCooldown:    120 * time.Second,
		AutoMute:        true,
		SendRules:       true,
		AllowedCommands: DefaultAllowedCommands,
		Limits:          DefaultLimits(),
	}
}

var DefaultAllowedCommands = []string{
	"stats", "skip", "refresh", "rules", "about", "info", "whois", "rtimeouts",
	"roles", "join", "top", "commands", "admin", "admins", "owner", "owners",
	"timeouts", "times", "rhush", "rsecret", "hush", "secret", "modon", "modoff",
	"banned", "bans", "clear", "clearstats", "start", "pause",
}

type cooldownKey struct {
	user     domain.UserID
	category domain.CooldownCategory
}

type cooldownEntry struct {
	lastUsed time.Time
	warned   bool
}

type cameraTimer struct {
	start    time.Time
	username string
}

type pendingAction struct {
	decision domain.Decision
	at       time.Time
}

type Store struct {
	cfg Config
	log *slog.Logger

	allowed map[string]struct{}

	// cooldown
	cooldownMu sync.Mutex
	cooldowns  map[cooldownKey]cooldownEntry
	dedup      map[string]struct{}

	// presence
	presenceMu    sync.Mutex
	inVoice       map[domain.UserID]struct{}
	sessions      map[domain.UserID]time.Time
	durations     map[domain.UserID]*durationRecord
	trackingSince time.Time

	// moderation
	moderationMu sync.Mutex
	timers       map[domain.UserID]cameraTimer
	cameraOn     map[domain.UserID]bool
	muted        map[domain.UserID]struct{}
	violations   map[domain.UserID]int
	timeouts     map[domain.UserID]domain.ActiveTimeout
	pending      map[uuid.UUID]pendingAction
	history      map[domain.HistoryKind][]domain.HistoryEvent
	rulesSent    map[domain.UserID]struct{}
	dmFailed     map[domain.UserID]struct{}
	recentBans   map[domain.UserID]time.Time
	removing     map[domain.UserID]time.Time
	modActive    bool
	hush         bool

	// analytics
	analyticsMu     sync.Mutex
	commandUsage    map[string]int
	usageByUser     map[domain.UserID]map[string]int
	violationEvents int
	actionFailures  int
	decisionCounts  map[domain.DecisionKind]int
}

// New crea el store. now marca el inicio del tracking de duraciones.
func New(cfg Config, log *slog.Logger, now time.Time) *Store {
	if log == nil {
		log = slog.Default()
	}
	def := DefaultLimits()
	if cfg.Limits == (Limits{}) {
		cfg.Limits = def
	}
	if len(cfg.AllowedCommands) == 0 {
		cfg.AllowedCommands = DefaultAllowedCommands
	}

	s := &Store{
		cfg:     cfg,
		log:     log.With("component", "state"),
		allowed: make(map[string]struct{}, len(cfg.AllowedCommands)),

		cooldowns: map[cooldownKey]cooldownEntry{},
		dedup:     map[string]struct{}{},

		inVoice:       map[domain.UserID]struct{}{},
		sessions:      map[domain.UserID]time.Time{},
		durations:     map[domain.UserID]*durationRecord{},
		trackingSince: now,

		timers:     map[domain.UserID]cameraTimer{},
		cameraOn:   map[domain.UserID]bool{},
		muted:      map[domain.UserID]struct{}{},
		violations: map[domain.UserID]int{},
		timeouts:   map[domain.UserID]domain.ActiveTimeout{},
		pending:    map[uuid.UUID]pendingAction{},
		history:    map[domain.HistoryKind][]domain.HistoryEvent{},
		rulesSent:  map[domain.UserID]struct{}{},
		dmFailed:   map[domain.UserID]struct{}{},
		recentBans: map[domain.UserID]time.Time{},
		removing:   map[domain.UserID]time.Time{},
		modActive:  !cfg.ModerationDisabled,

		commandUsage:   map[string]int{},
		usageByUser:    map[domain.UserID]map[string]int{},
		decisionCounts: map[domain.DecisionKind]int{},
	}
	for _, c := range cfg.AllowedCommands {
		s.allowed[c] = struct{}{}
	}
	return s
}

func (s *Store) Config() Config { return s.cfg }
