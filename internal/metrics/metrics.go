// Package metrics exposes the projector link as Prometheus collectors.
// Exchange counters are fed by the link itself, state gauges by the event
// stream the projector actor publishes on.
package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "optoma"

type Metrics struct {
	exchanges *prometheus.CounterVec
	failures  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	available prometheus.Gauge
	powerOn   prometheus.Gauge
	lampHours prometheus.Gauge

	mu           sync.Mutex
	subscription *eventstream.Subscription
}

var _ optoma.Instrument = (*Metrics)(nil)

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Serial exchanges attempted, by command.",
		}, []string{"command"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_failures_total",
			Help:      "Serial exchanges that failed, by command and reason.",
		}, []string{"command", "reason"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Duration of serial exchanges.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"command"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projector_available",
			Help:      "1 when the last exchange with the projector succeeded.",
		}),
		powerOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projector_power_on",
			Help:      "1 when the projector is on.",
		}),
		lampHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projector_lamp_hours",
			Help:      "Lamp hours reported by the projector.",
		}),
	}

	for _, c := range []prometheus.Collector{m.exchanges, m.failures, m.latency, m.available, m.powerOn, m.lampHours} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordExchange implements optoma.Instrument.
func (m *Metrics) RecordExchange(cmd optoma.Command, duration time.Duration, err error) {
	command := cmd.String()
	m.exchanges.WithLabelValues(command).Inc()
	m.latency.WithLabelValues(command).Observe(duration.Seconds())
	if err != nil {
		m.failures.WithLabelValues(command, failureReason(err)).Inc()
	}
}

// Subscribe starts tracking projector state from the event stream.
func (m *Metrics) Subscribe(es *eventstream.EventStream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscription != nil {
		return
	}
	m.subscription = es.Subscribe(m.handleEvent)
}

func (m *Metrics) Unsubscribe(es *eventstream.EventStream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscription != nil {
		es.Unsubscribe(m.subscription)
		m.subscription = nil
	}
}

func (m *Metrics) handleEvent(event any) {
	switch ev := event.(type) {
	case domain.AvailabilityUpdateEvent:
		m.available.Set(boolToFloat(ev.Value))
	case domain.SwitchSensorUpdateEvent:
		if ev.Id == domain.SWITCH_ID_PROJECTOR_POWER {
			m.powerOn.Set(boolToFloat(ev.Value))
		}
	case domain.TextSensorUpdateEvent:
		if ev.Id != domain.SENSOR_ID_PROJECTOR_LAMP_HOURS {
			return
		}
		if hours, err := strconv.ParseFloat(ev.Value, 64); err == nil {
			m.lampHours.Set(hours)
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, optoma.ErrPortOpen):
		return "port_open"
	case errors.Is(err, optoma.ErrWriteTimeout):
		return "write_timeout"
	case errors.Is(err, optoma.ErrShortWrite):
		return "short_write"
	case errors.Is(err, optoma.ErrReadTimeout):
		return "read_timeout"
	case errors.Is(err, optoma.ErrLineTooLong):
		return "line_too_long"
	default:
		return "io"
	}
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
