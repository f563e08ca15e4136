package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storageFreePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camdvr",
		Subsystem: "storage",
		Name:      "free_percent",
		Help:      "Available space on the recording filesystem as a percentage",
	})

	storageCleanups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camdvr",
		Subsystem: "storage",
		Name:      "cleanups_total",
		Help:      "Day directories deleted by retention",
	})

	storageFreedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camdvr",
		Subsystem: "storage",
		Name:      "freed_bytes_total",
		Help:      "Bytes reclaimed by retention cleanups",
	})
)

// SetStorageFreePercent sets the free-space gauge.
func SetStorageFreePercent(p float64) {
	storageFreePercent.Set(p)
}

// AddStorageCleanup counts one cleanup and the bytes it reclaimed.
func AddStorageCleanup(freedBytes uint64) {
	storageCleanups.Inc()
	storageFreedBytes.Add(float64(freedBytes))
}
