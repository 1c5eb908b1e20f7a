package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InteractionsTotal counts inbound interactions by kind.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slashd_interactions_total",
		Help: "The total number of inbound interactions received",
	}, []string{"type"}) // "command", "autocomplete", "unknown"

	// InvocationsTotal counts command invocations by terminal outcome.
	InvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slashd_invocations_total",
		Help: "The total number of command invocations by outcome",
	}, []string{"outcome"}) // "completed", "failed", "cancelled"

	// SyncedCommands tracks the number of commands bound in the last sync.
	SyncedCommands = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slashd_synced_commands",
		Help: "The number of commands bound to remote IDs in the last sync",
	}, []string{"scope"}) // "global", "guild"

	// GuildSyncSkips counts guilds skipped during sync for lack of access.
	GuildSyncSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slashd_guild_sync_skips_total",
		Help: "The total number of guilds skipped during command sync",
	})

	// TruncatedOverwrites counts permission sets cut at the platform cap.
	TruncatedOverwrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slashd_truncated_overwrites_total",
		Help: "The total number of per-command permission sets truncated to the overwrite cap",
	})
)

// Handler returns the HTTP handler for Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncInteraction increments the interaction counter for the given kind.
func IncInteraction(kind string) {
	InteractionsTotal.WithLabelValues(kind).Inc()
}

// IncInvocation increments the invocation counter for the given outcome.
func IncInvocation(outcome string) {
	InvocationsTotal.WithLabelValues(outcome).Inc()
}
