// Package metrics exposes the service counters scraped from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandshakesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concur",
		Subsystem: "auth",
		Name:      "handshakes_started_total",
		Help:      "Handshake sessions issued to clients.",
	})

	TokensDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concur",
		Subsystem: "auth",
		Name:      "tokens_delivered_total",
		Help:      "Access tokens delivered into a pending session.",
	})

	VaultsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concur",
		Subsystem: "sync",
		Name:      "vaults_created_total",
		Help:      "Vaults created through the save endpoint.",
	})

	FilesSynced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concur",
		Subsystem: "sync",
		Name:      "files_synced_total",
		Help:      "File records written by sync uploads.",
	})
)
