package tools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "improv_tool_calls_total",
		Help: "Tool invocations by tool name",
	}, []string{"tool"})

	metricToolErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "improv_tool_errors_total",
		Help: "Tool invocations that returned an error, by tool name",
	}, []string{"tool"})

	metricRoundsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "improv_rounds_advanced_total",
		Help: "Round advances across all sessions",
	})

	metricShowsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "improv_shows_completed_total",
		Help: "next_round calls that hit the closing record",
	})

	metricSnapshotsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "improv_snapshots_written_total",
		Help: "Session snapshots written to disk",
	})
)
