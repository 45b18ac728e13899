// Package metrics declares the Prometheus collectors for the sync layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feirinha_sync_ops_total",
			Help: "Item operations by kind and result",
		},
		[]string{"op", "result"},
	)
	RemoteWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feirinha_remote_write_failures_total",
			Help: "Remote writes that failed and were kept local only",
		},
	)
	SnapshotsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feirinha_snapshots_applied_total",
			Help: "Server snapshots applied over the local cache",
		},
	)
	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feirinha_active_subscriptions",
			Help: "Currently open list snapshot subscriptions",
		},
	)
)
