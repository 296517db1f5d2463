package eventlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logbook_entries_appended_total",
		Help: "Entries written by Append",
	}, []string{"log"})

	entriesEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logbook_entries_evicted_total",
		Help: "Oldest entries dropped to keep a log under its cap",
	}, []string{"log"})

	entriesTrimmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logbook_entries_trimmed_total",
		Help: "Entries removed by Trim",
	}, []string{"log"})

	entriesGated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logbook_entries_gated_total",
		Help: "Entries dropped because the log's gate was off",
	}, []string{"log"})

	entriesStored = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logbook_entries_stored",
		Help: "Entries currently stored, as of the last write",
	}, []string{"log"})

	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logbook_operation_errors_total",
		Help: "Log operations that failed in the persistence layer",
	}, []string{"log", "op"})
)
