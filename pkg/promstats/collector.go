// Package promstats exports reactor.Stats as prometheus metrics.
package promstats

import (
	"github.com/delaneyj/trackparty/reactor"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything that can produce a stats snapshot. A
// *reactor.ReactiveSystem is one, but it is not safe for concurrent use:
// scrapes happen on the HTTP goroutine, so wrap the system in a source that
// takes whatever lock guards it.
type StatsSource interface {
	Stats() reactor.Stats
}

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "trackparty").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "trackparty",
	}
}

type metric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(s reactor.Stats) float64
}

// Collector reads a fresh snapshot on every scrape.
type Collector struct {
	source  StatsSource
	metrics []metric
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(source StatsSource, opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	desc := func(subsystem, name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, subsystem, name),
			help, nil, cfg.ConstLabels,
		)
	}

	return &Collector{
		source: source,
		metrics: []metric{
			{
				desc:      desc("registry", "objects", "Observed objects with at least one subscription."),
				valueType: prometheus.GaugeValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Objects) },
			},
			{
				desc:      desc("registry", "keys", "Observed keys with at least one subscription."),
				valueType: prometheus.GaugeValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Keys) },
			},
			{
				desc:      desc("registry", "dependency_sets", "Non-empty (object, key, kind) dependency sets."),
				valueType: prometheus.GaugeValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Sets) },
			},
			{
				desc:      desc("registry", "subscriptions", "Effect subscriptions currently held by the registry."),
				valueType: prometheus.GaugeValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Subscriptions) },
			},
			{
				desc:      desc("registry", "reclaimed_total", "Observed objects released by the garbage collector while subscribed."),
				valueType: prometheus.CounterValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Reclaimed) },
			},
			{
				desc:      desc("effect", "runs_total", "Tracked effect runs."),
				valueType: prometheus.CounterValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Runs) },
			},
			{
				desc:      desc("", "triggers_total", "Writes reported to the system."),
				valueType: prometheus.CounterValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Triggers) },
			},
			{
				desc:      desc("effect", "schedules_total", "Re-runs handed to a scheduler instead of run inline."),
				valueType: prometheus.CounterValue,
				value:     func(s reactor.Stats) float64 { return float64(s.Schedules) },
			},
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.value(s))
	}
}
