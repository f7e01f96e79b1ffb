package state

import (
	"sort"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

type CommandCount struct {
	Command string `json:"command"`
	Count   int    `json:"count"`
}

type UserUsage struct {
	User  domain.UserID `json:"user_id,string"`
	Total int           `json:"total"`
}

type AnalyticsSummary struct {
	CommandUsage    []CommandCount                   `json:"command_usage"`
	TopUsers        []UserUsage                      `json:"top_users"`
	UsageByUser     map[domain.UserID]map[string]int `json:"-"`
	ViolationEvents int                              `json:"violation_events"`
	ActionFailures  int                              `json:"action_failures"`
	Decisions       map[domain.DecisionKind]int      `json:"decisions"`
}

// RecordCommand ignora comandos fuera de la lista permitida, así la
// cardinalidad no depende de lo que escriban los usuarios.
func (s *Store) RecordCommand(command string, user domain.UserID) bool {
	if _, ok := s.allowed[command]; !ok || !user.Valid() {
		return false
	}
	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()

	s.commandUsage[command]++
	m, ok := s.usageByUser[user]
	if !ok {
		m = map[string]int{}
		s.usageByUser[user] = m
	}
	m[command]++
	return true
}

func (s *Store) QueryAnalyticsSummary() AnalyticsSummary {
	s.analyticsMu.Lock()
	defer s.analyticsMu.Unlock()

	sum := AnalyticsSummary{
		CommandUsage:    rankCommands(s.commandUsage),
		UsageByUser:     make(map[domain.UserID]map[string]int, len(s.usageByUser)),
		ViolationEvents: s.violationEvents,
		ActionFailures:  s.actionFailures,
		Decisions:       make(map[domain.DecisionKind]int, len(s.decisionCounts)),
	}
	for u, m := range s.usageByUser {
		cp := make(map[string]int, len(m))
		for k, v := range m {
			cp[k] = v
		}
		sum.UsageByUser[u] = cp
	}
	sum.TopUsers = rankUsers(s.usageByUser)
	for k, v := range s.decisionCounts {
		sum.Decisions[k] = v
	}
	return sum
}

func rankCommands(m map[string]int) []CommandCount {
	out := make([]CommandCount, 0, len(m))
	for k, v := range m {
		out = append(out, CommandCount{Command: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Command < out[j].Command
	})
	return out
}

func rankUsers(m map[domain.UserID]map[string]int) []UserUsage {
	out := make([]UserUsage, 0, len(m))
	for u, cmds := range m {
		total := 0
		for _, n := range cmds {
			total += n
		}
		out = append(out, UserUsage{User: u, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].User < out[j].User
	})
	return out
}

// trimAnalyticsLocked deja sólo las entradas con más uso hasta el tope.
func (s *Store) trimAnalyticsLocked() (commands, users int) {
	if limit := s.cfg.Limits.MaxCommands; len(s.commandUsage) > limit {
		ranked := rankCommands(s.commandUsage)
		for _, c := range ranked[limit:] {
			delete(s.commandUsage, c.Command)
			commands++
		}
	}
	if limit := s.cfg.Limits.MaxUsers; len(s.usageByUser) > limit {
		ranked := rankUsers(s.usageByUser)
		for _, u := range ranked[limit:] {
			delete(s.usageByUser, u.User)
			users++
		}
	}
	return commands, users
}
