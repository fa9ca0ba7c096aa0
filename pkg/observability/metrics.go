package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Undo stack metrics
	CommandsPushed *prometheus.CounterVec
	CommandsMerged *prometheus.CounterVec
	Undos          prometheus.Counter
	Redos          prometheus.Counter
	UndoDepth      prometheus.Gauge

	// Range engine metrics
	RangeComputations *prometheus.CounterVec
	RangeCycleGuards  prometheus.Counter

	// Selection metrics
	SelectionChanges prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CommandsPushed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_pushed_total",
				Help:      "Total number of commands pushed on the undo stack",
			},
			[]string{"command"},
		),
		CommandsMerged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_merged_total",
				Help:      "Total number of pushed commands merged into the previous one",
			},
			[]string{"command"},
		),
		Undos: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "undo_total",
				Help:      "Total number of undone commands",
			},
		),
		Redos: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redo_total",
				Help:      "Total number of redone commands",
			},
		),
		UndoDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "undo_stack_depth",
				Help:      "Number of commands held by the undo stack",
			},
		),
		RangeComputations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "range_computations_total",
				Help:      "Total number of node range computations",
			},
			[]string{"item_type"},
		),
		RangeCycleGuards: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "range_cycle_guard_hits_total",
				Help:      "Range computations skipped because the node was already being computed",
			},
		),
		SelectionChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selection_changes_total",
				Help:      "Total number of selection change notifications",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CommandsPushed,
		c.CommandsMerged,
		c.Undos,
		c.Redos,
		c.UndoDepth,
		c.RangeComputations,
		c.RangeCycleGuards,
		c.SelectionChanges,
	)

	return c
}

// Registry returns the registry holding the collector metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordPush records a command pushed on the undo stack
func (c *Collector) RecordPush(command string, merged bool, depth int) {
	if c == nil {
		return
	}
	c.CommandsPushed.WithLabelValues(command).Inc()
	if merged {
		c.CommandsMerged.WithLabelValues(command).Inc()
	}
	c.UndoDepth.Set(float64(depth))
}

// RecordUndo records an undo
func (c *Collector) RecordUndo() {
	if c == nil {
		return
	}
	c.Undos.Inc()
}

// RecordRedo records a redo
func (c *Collector) RecordRedo() {
	if c == nil {
		return
	}
	c.Redos.Inc()
}

// RecordUndoDepth records the number of commands held by the undo stack
func (c *Collector) RecordUndoDepth(depth int) {
	if c == nil {
		return
	}
	c.UndoDepth.Set(float64(depth))
}

// RecordRangeComputation records one range computation
func (c *Collector) RecordRangeComputation(itemType string) {
	if c == nil {
		return
	}
	c.RangeComputations.WithLabelValues(itemType).Inc()
}

// RecordRangeCycleGuard records a computation stopped by the cycle guard
func (c *Collector) RecordRangeCycleGuard() {
	if c == nil {
		return
	}
	c.RangeCycleGuards.Inc()
}

// RecordSelectionChange records a selection change notification
func (c *Collector) RecordSelectionChange() {
	if c == nil {
		return
	}
	c.SelectionChanges.Inc()
}
