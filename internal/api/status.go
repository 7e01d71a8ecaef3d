package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/MrMelker/EMS-ESP/internal/bridges/emsmqtt"
)

// SystemStatus is the response of /api/v1/status.
type SystemStatus struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	MQTT          MQTTMetrics    `json:"mqtt"`
	Bridge        *BridgeMetrics `json:"bridge,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// BridgeMetrics contains bridge counters.
type BridgeMetrics struct {
	emsmqtt.BridgeStatistics
	DevicesKnown int `json:"devices_known"`
}

// handleStatus returns runtime and bridge statistics as JSON, for humans
// and scripts that do not scrape /metrics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.bridge != nil {
		status.MQTT.Connected = s.bridge.Connected()
		status.Bridge = &BridgeMetrics{
			BridgeStatistics: s.bridge.Statistics(),
			DevicesKnown:     len(s.bridge.Devices()),
		}
	}

	writeJSON(w, http.StatusOK, status)
}
