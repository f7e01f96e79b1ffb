package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "camguard_decisions_applied_total",
	Help: "Number of moderation decisions executed against Discord",
}, []string{"kind"})

var actionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "camguard_action_failures_total",
	Help: "Number of moderation actions that failed remotely",
}, []string{"kind"})

var violationsFired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "camguard_violations_total",
	Help: "Number of camera violations fired by the escalation loop",
})

var sweptEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "camguard_swept_entries_total",
	Help: "Number of entries removed by the retention sweep",
}, []string{"store"})

var openSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "camguard_open_sessions",
	Help: "Users currently present in the monitored channel",
})

var membershipEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "camguard_membership_events_total",
	Help: "Membership events recorded in history",
}, []string{"kind"})

var confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "camguard_confirmations_total",
	Help: "Admin confirmation prompts by result",
}, []string{"result"})

var ledgerErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "camguard_ledger_errors_total",
	Help: "Number of failed writes to the moderation ledger",
})

var dailyStatsRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "camguard_daily_stats_runs_total",
	Help: "Daily stats report runs by result",
}, []string{"result"})
