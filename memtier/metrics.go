package memtier

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	descTierAvailable = iota
	descTierLimit
	descTierUsed
	descTierCold
	descTierEvicted
	descCharged
	descDiscarded
	descMigrated
)

var (
	descriptors = []*prometheus.Desc{
		descTierAvailable: prometheus.NewDesc(
			"memtier_tier_available",
			"Whether a memory tier is reachable (1) or not (0).",
			[]string{"tier"},
			nil,
		),
		descTierLimit: prometheus.NewDesc(
			"memtier_tier_limit_bytes",
			"Byte ceiling of a memory tier.",
			[]string{"tier"},
			nil,
		),
		descTierUsed: prometheus.NewDesc(
			"memtier_tier_used_bytes",
			"Bytes currently charged to a memory tier.",
			[]string{"tier"},
			nil,
		),
		descTierCold: prometheus.NewDesc(
			"memtier_tier_cold_bytes",
			"Charged bytes of a memory tier marked cold.",
			[]string{"tier"},
			nil,
		),
		descTierEvicted: prometheus.NewDesc(
			"memtier_tier_evicted_bytes_total",
			"Bytes evicted out of a memory tier.",
			[]string{"tier"},
			nil,
		),
		descCharged: prometheus.NewDesc(
			"memtier_charged_bytes_total",
			"Bytes requested through allocation.",
			nil,
			nil,
		),
		descDiscarded: prometheus.NewDesc(
			"memtier_discarded_bytes_total",
			"Bytes dropped because no tier could hold them.",
			nil,
			nil,
		),
		descMigrated: prometheus.NewDesc(
			"memtier_migrated_bytes_total",
			"Bytes moved by explicit migrations.",
			nil,
			nil,
		),
	}
)

// Collector exposes a Manager's ledger as Prometheus metrics. It only reads
// the manager, but collection must not overlap with mutating calls.
type Collector struct {
	m *Manager
}

// NewCollector returns a read-only collector over m.
func NewCollector(m *Manager) *Collector {
	return &Collector{m: m}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descriptors {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, u := range c.m.Snapshot() {
		tier := u.Tier.String()
		available := 0.0
		if u.Available {
			available = 1
		}
		ch <- prometheus.MustNewConstMetric(descriptors[descTierAvailable], prometheus.GaugeValue, available, tier)
		ch <- prometheus.MustNewConstMetric(descriptors[descTierLimit], prometheus.GaugeValue, float64(u.Limit), tier)
		ch <- prometheus.MustNewConstMetric(descriptors[descTierUsed], prometheus.GaugeValue, float64(u.Used), tier)
		ch <- prometheus.MustNewConstMetric(descriptors[descTierCold], prometheus.GaugeValue, float64(u.Cold), tier)
		ch <- prometheus.MustNewConstMetric(descriptors[descTierEvicted], prometheus.CounterValue, float64(u.Evicted), tier)
	}
	ch <- prometheus.MustNewConstMetric(descriptors[descCharged], prometheus.CounterValue, float64(c.m.Charged()))
	ch <- prometheus.MustNewConstMetric(descriptors[descDiscarded], prometheus.CounterValue, float64(c.m.Discarded()))
	ch <- prometheus.MustNewConstMetric(descriptors[descMigrated], prometheus.CounterValue, float64(c.m.Migrated()))
}
