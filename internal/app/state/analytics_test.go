package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/camguard-bot/internal/domain"
)

func TestRecordCommandAllowList(t *testing.T) {
	s := newTestStore(testConfig())

	assert.True(t, s.RecordCommand("stats", 1))
	assert.True(t, s.RecordCommand("stats", 2))
	assert.True(t, s.RecordCommand("times", 1))
	assert.False(t, s.RecordCommand("definitely-not-a-command", 1))
	assert.False(t, s.RecordCommand("stats", 0))

	sum := s.QueryAnalyticsSummary()
	assert.Equal(t, []CommandCount{{"stats", 2}, {"times", 1}}, sum.CommandUsage)
	assert.Equal(t, map[string]int{"stats": 1, "times": 1}, sum.UsageByUser[1])
	assert.Equal(t, []UserUsage{{User: 1, Total: 2}, {User: 2, Total: 1}}, sum.TopUsers)

	// el resumen es una copia
	sum.UsageByUser[1]["stats"] = 99
	assert.Equal(t, 1, s.QueryAnalyticsSummary().UsageByUser[1]["stats"])
}

func TestSweepKeepsMostActiveUsers(t *testing.T) {
	s := newTestStore(testConfig())

	// 1001 usuarios; el 1001 usa un solo comando, el resto dos
	for u := 1; u <= 1001; u++ {
		s.RecordCommand("stats", domain.UserID(u))
		if u != 1001 {
			s.RecordCommand("times", domain.UserID(u))
		}
	}
	rep := s.RunRetentionSweep(at(0))
	assert.Equal(t, 1, rep.Users)

	sum := s.QueryAnalyticsSummary()
	assert.Len(t, sum.UsageByUser, 1000)
	_, kept := sum.UsageByUser[1001]
	assert.False(t, kept)
}

func TestSweepTrimsCommandCardinality(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedCommands = nil
	for i := 0; i < 105; i++ {
		cfg.AllowedCommands = append(cfg.AllowedCommands, fmt.Sprintf("cmd%03d", i))
	}
	s := newTestStore(cfg)

	for i := 0; i < 105; i++ {
		for n := 0; n <= i; n++ {
			s.RecordCommand(fmt.Sprintf("cmd%03d", i), 1)
		}
	}
	rep := s.RunRetentionSweep(at(0))
	assert.Equal(t, 5, rep.Commands)

	sum := s.QueryAnalyticsSummary()
	require.Len(t, sum.CommandUsage, 100)
	assert.Equal(t, "cmd104", sum.CommandUsage[0].Command)
	assert.Equal(t, "cmd005", sum.CommandUsage[99].Command)
}
