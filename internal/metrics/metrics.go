// Package metrics defines the simulator's Prometheus instrumentation,
// grouped into a Registry so a process can run more than one simulator
// instance without colliding on the default global registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric the core emits, collected into one struct
// per instance instead of package-level vars so multiple simulator
// instances can run in the same process without colliding.
type Registry struct {
	reg *prometheus.Registry

	DecodeErrors    prometheus.Counter
	EncodeErrors    prometheus.Counter
	HandlerPanics   prometheus.Counter
	RequestsHandled prometheus.Counter

	DevicesActive    prometheus.Gauge
	DevicesReclaimed prometheus.Counter
	PoolFullErrors   prometheus.Counter

	ProfileReloads *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// NewRegistry builds and registers the full metric set against a fresh
// prometheus.Registry (never the global DefaultRegisterer, so multiple
// Registries can coexist in one process).
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.DecodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snmpdevsim_decode_errors_total",
		Help: "PDU datagrams dropped because they failed to decode as SNMPv1 or v2c.",
	})
	r.EncodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snmpdevsim_encode_errors_total",
		Help: "Responses that failed to marshal and were not sent.",
	})
	r.HandlerPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snmpdevsim_handler_panics_total",
		Help: "Panics recovered while handling a request, converted to genErr/no_such_object.",
	})
	r.RequestsHandled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snmpdevsim_requests_handled_total",
		Help: "Requests that produced and sent a response.",
	})
	r.DevicesActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snmpdevsim_devices_active",
		Help: "Simulated devices currently bound and running.",
	})
	r.DevicesReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snmpdevsim_devices_reclaimed_total",
		Help: "Devices stopped by the idle-timeout sweep.",
	})
	r.PoolFullErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snmpdevsim_pool_full_total",
		Help: "get_or_create calls rejected because max_devices was reached.",
	})
	r.ProfileReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snmpdevsim_profile_reloads_total",
		Help: "store_profile / load_walk_profile calls, by device class.",
	}, []string{"class"})
	r.RequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snmpdevsim_request_latency_seconds",
		Help:    "Time spent resolving and encoding one request.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pdu_type"})

	r.reg.MustRegister(
		r.DecodeErrors, r.EncodeErrors, r.HandlerPanics, r.RequestsHandled,
		r.DevicesActive, r.DevicesReclaimed, r.PoolFullErrors,
		r.ProfileReloads, r.RequestLatency,
	)
	return r
}

// Gatherer exposes the underlying prometheus.Registry for an HTTP
// /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
