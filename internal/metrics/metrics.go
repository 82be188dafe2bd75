// Package metrics exposes room and connection activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/wireboard-server/internal/core"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "wireboard"

// Collector records hub activity. It implements core.Observer.
type Collector struct {
	roomsOpen   prometheus.Gauge
	roomsReaped prometheus.Counter
	members     prometheus.Gauge
	connections prometheus.Gauge
	commands    *prometheus.CounterVec
	dropped     prometheus.Counter
	rateLimited prometheus.Counter
	rejected    *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

var _ core.Observer = (*Collector)(nil)

// New registers collectors on reg. Pass a fresh prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Collector{
		roomsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_open",
			Help:      "Number of rooms held by the registry",
		}),
		roomsReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_reaped_total",
			Help:      "Total number of idle rooms reaped",
		}),
		members: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_members",
			Help:      "Number of connections currently joined to a room",
		}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of open WebSocket connections",
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of applied commands by kind",
		}, []string{"kind"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_dropped_total",
			Help:      "Total number of events dropped for slow or evicted connections",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rate_limited_total",
			Help:      "Total number of inbound messages dropped by the rate limiter",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rejected_total",
			Help:      "Total number of inbound messages rejected by code",
		}, []string{"code"}),
		gatherer: reg,
	}
}

// NewWithRuntime is New plus Go runtime and process collectors.
func NewWithRuntime(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg, namespace)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) RoomOpened(string) { c.roomsOpen.Inc() }

func (c *Collector) RoomReaped(string) {
	c.roomsOpen.Dec()
	c.roomsReaped.Inc()
}

func (c *Collector) MemberJoined(string, core.Member) { c.members.Inc() }

func (c *Collector) MemberLeft(string, string) { c.members.Dec() }

func (c *Collector) CommandApplied(_ string, kind core.CommandKind) {
	c.commands.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) DeliveryDropped(string, string) { c.dropped.Inc() }

// ConnectionOpened counts an accepted WebSocket.
func (c *Collector) ConnectionOpened() { c.connections.Inc() }

// ConnectionClosed uncounts a WebSocket.
func (c *Collector) ConnectionClosed() { c.connections.Dec() }

// RateLimited counts a message dropped by the per-connection limiter.
func (c *Collector) RateLimited() { c.rateLimited.Inc() }

// Rejected counts a message answered with an error code.
func (c *Collector) Rejected(code string) { c.rejected.WithLabelValues(code).Inc() }
