package emsmqtt

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// metricsNamespace prefixes every collector.
const metricsNamespace = "ems"

// Metrics holds the bridge's Prometheus collectors on a private registry,
// plus plain counters for the health message.
type Metrics struct {
	registry *prometheus.Registry

	received      prometheus.Counter
	decoded       prometheus.Counter
	invalidFrames prometheus.Counter
	unknownDevice prometheus.Counter
	unknownType   prometheus.Counter
	truncated     prometheus.Counter
	commands      *prometheus.CounterVec
	devices       prometheus.Gauge
	temperatures  *prometheus.GaugeVec

	nReceived atomic.Uint64
	nDecoded  atomic.Uint64
	nSent     atomic.Uint64
	nErrors   atomic.Uint64
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "telegrams_received_total",
			Help:      "Frames delivered by the transport.",
		}),
		decoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "telegrams_decoded_total",
			Help:      "Telegrams decoded into at least one reading.",
		}),
		invalidFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_invalid_total",
			Help:      "Frames that could not be parsed.",
		}),
		unknownDevice: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unknown_device_total",
			Help:      "Telegrams from unreserved addresses or Version telegrams with unlisted products.",
		}),
		unknownType: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unknown_type_total",
			Help:      "Telegrams whose type has no layout for the sending device.",
		}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "truncated_fields_total",
			Help:      "Fields skipped because the payload ended early.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands handled, by result (accepted or error code).",
		}, []string{"result"}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "devices_known",
			Help:      "Devices learned from Version telegrams.",
		}),
		temperatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "temperature_celsius",
			Help:      "Last decoded temperature readings.",
		}, []string{"address", "message", "field"}),
	}

	m.registry.MustRegister(
		m.received, m.decoded, m.invalidFrames, m.unknownDevice, m.unknownType,
		m.truncated, m.commands, m.devices, m.temperatures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to expose on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Snapshot returns the counters reported in health messages.
func (m *Metrics) Snapshot() BridgeStatistics {
	return BridgeStatistics{
		TelegramsReceived: m.nReceived.Load(),
		TelegramsDecoded:  m.nDecoded.Load(),
		CommandsSent:      m.nSent.Load(),
		Errors:            m.nErrors.Load(),
	}
}

func (m *Metrics) frameReceived() {
	m.received.Inc()
	m.nReceived.Add(1)
}

func (m *Metrics) frameInvalid() {
	m.invalidFrames.Inc()
	m.nErrors.Add(1)
}

func (m *Metrics) deviceUnknown() { m.unknownDevice.Inc() }

func (m *Metrics) typeUnknown() { m.unknownType.Inc() }

func (m *Metrics) telegramDecoded(addr ems.Address, d ems.Decoded) {
	m.decoded.Inc()
	m.nDecoded.Add(1)
	for _, r := range d.Readings {
		t, ok := r.Value.(ems.Temperature)
		if !ok || !t.Present {
			continue
		}
		m.temperatures.WithLabelValues(addr.String(), d.Message.Key(), r.Field).Set(t.Celsius)
	}
}

func (m *Metrics) fieldsTruncated(n int) {
	if n > 0 {
		m.truncated.Add(float64(n))
	}
}

func (m *Metrics) commandHandled(result string) {
	m.commands.WithLabelValues(result).Inc()
	if result == string(AckAccepted) {
		m.nSent.Add(1)
		return
	}
	m.nErrors.Add(1)
}

func (m *Metrics) setDevices(n int) { m.devices.Set(float64(n)) }
