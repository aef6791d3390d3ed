package memtier

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/tiered-attention/trace"
)

// tierState is the ledger for one tier. Invariant: 0 <= cold <= used <= limit.
type tierState struct {
	limit int64 // byte ceiling
	used  int64 // bytes charged to the tier
	cold  int64 // subset of used that is eviction-eligible first
}

func (s *tierState) room() int64 {
	return s.limit - s.used
}

// TierUsage is a point-in-time view of one tier's ledger.
type TierUsage struct {
	Tier      Tier
	Available bool
	Limit     int64
	Used      int64
	Cold      int64
	Evicted   int64 // bytes evicted out of this tier over the manager's lifetime
}

// Option configures a Manager.
type Option func(*Manager)

// WithTrace records every placement, migration and eviction decision into tt.
func WithTrace(tt *trace.TierTrace) Option {
	return func(m *Manager) {
		m.trace = tt
	}
}

// Manager is the tiered capacity ledger. It decides placement and tracks
// charge per tier; it never owns or copies the bytes themselves.
type Manager struct {
	caps      Capabilities
	tiers     [numTiers]tierState
	evicted   [numTiers]int64
	charged   int64 // every byte ever passed to Allocate
	discarded int64 // bytes dropped with nowhere to hold them
	migrated  int64
	trace     *trace.TierTrace
}

// New creates a Manager whose limits are the capabilities' capacities.
func New(caps Capabilities, opts ...Option) *Manager {
	return NewWithLimits(caps, caps.FastCapacity, caps.MediumCapacity, caps.SlowCapacity, opts...)
}

// NewWithLimits creates a Manager with explicit per-tier limits, typically
// smaller simulated tiers than the detected capacities. Negative limits are
// treated as zero.
func NewWithLimits(caps Capabilities, fastLimit, mediumLimit, slowLimit int64, opts ...Option) *Manager {
	m := &Manager{caps: caps}
	m.tiers[Fast].limit = nonNegative(fastLimit)
	m.tiers[Medium].limit = nonNegative(mediumLimit)
	m.tiers[Slow].limit = nonNegative(slowLimit)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Capabilities returns the descriptor the manager was built with.
func (m *Manager) Capabilities() Capabilities {
	return m.caps
}

// Allocate charges bytes to the most preferred tier that can take them and
// returns that tier.
//
// Fast is used when present and the request is no larger than its limit.
// Otherwise Medium is tried after making room. Slow is the last resort and
// is never evicted from here. Bytes that fit nowhere are discarded.
func (m *Manager) Allocate(bytes int64) Tier {
	bytes = nonNegative(bytes)
	m.charged = satAdd(m.charged, bytes)

	tier := m.place(bytes)
	discarded := bytes - m.accept(tier, bytes)
	if discarded > 0 {
		m.discard(tier, discarded, "allocation does not fit")
	}
	m.trace.RecordAllocation(trace.AllocationRecord{
		Bytes:     bytes,
		Tier:      tier.String(),
		Discarded: discarded,
	})
	return tier
}

// place picks the tier for an allocation of bytes, evicting as needed.
func (m *Manager) place(bytes int64) Tier {
	if m.available(Fast) && bytes <= m.tiers[Fast].limit {
		m.ensureSpace(Fast, bytes)
		return Fast
	}
	m.ensureSpace(Medium, bytes)
	if bytes <= m.tiers[Medium].room() {
		return Medium
	}
	if m.available(Slow) {
		return Slow
	}
	// LOSSY: no block storage. Medium keeps what it can and the rest is dropped.
	return Medium
}

// Migrate moves up to bytes of charge from one tier to another. The
// destination makes room first; whatever still does not fit stays where it
// was. Cold bytes travel with the charge. Unavailable tiers make it a no-op.
func (m *Manager) Migrate(from, to Tier, bytes int64) {
	if from == to || !m.available(from) || !m.available(to) {
		return
	}
	requested := nonNegative(bytes)
	moved := min(requested, m.tiers[from].used)
	if moved == 0 {
		return
	}

	// Making room in to never lowers the source's usage, so the source still
	// holds at least moved bytes afterwards.
	m.ensureSpace(to, moved)

	src, dst := &m.tiers[from], &m.tiers[to]
	fit := min(moved, dst.room())
	coldMoved := min(fit, src.cold)
	src.used -= fit
	src.cold -= coldMoved
	dst.used += fit
	dst.cold += coldMoved
	m.migrated = satAdd(m.migrated, fit)

	logrus.WithFields(logrus.Fields{
		"from":  from,
		"to":    to,
		"bytes": fit,
		"cold":  coldMoved,
	}).Debug("memtier: migrated")
	m.trace.RecordMovement(trace.MovementRecord{
		Kind:      trace.MoveMigrate,
		From:      from.String(),
		To:        to.String(),
		Requested: requested,
		Moved:     fit,
	})
}

// MarkCold flags up to bytes of t's charge as eviction-eligible. Saturates at
// the tier's used bytes.
func (m *Manager) MarkCold(t Tier, bytes int64) {
	if !t.valid() {
		return
	}
	st := &m.tiers[t]
	st.cold = min(satAdd(st.cold, nonNegative(bytes)), st.used)
}

// MarkHot clears up to bytes of t's cold flag. Saturates at zero.
func (m *Manager) MarkHot(t Tier, bytes int64) {
	if !t.valid() {
		return
	}
	st := &m.tiers[t]
	st.cold = max(st.cold-nonNegative(bytes), 0)
}

// Usage returns the bytes charged to each tier.
func (m *Manager) Usage() (fast, medium, slow int64) {
	return m.tiers[Fast].used, m.tiers[Medium].used, m.tiers[Slow].used
}

// Used returns the bytes charged to t.
func (m *Manager) Used(t Tier) int64 {
	if !t.valid() {
		return 0
	}
	return m.tiers[t].used
}

// Cold returns the cold bytes of t.
func (m *Manager) Cold(t Tier) int64 {
	if !t.valid() {
		return 0
	}
	return m.tiers[t].cold
}

// Limit returns the byte ceiling of t.
func (m *Manager) Limit(t Tier) int64 {
	if !t.valid() {
		return 0
	}
	return m.tiers[t].limit
}

// Charged returns every byte ever passed to Allocate.
// Sum of Usage() plus Discarded() always equals Charged().
func (m *Manager) Charged() int64 {
	return m.charged
}

// Discarded returns the bytes dropped because no tier could hold them.
func (m *Manager) Discarded() int64 {
	return m.discarded
}

// Migrated returns the bytes moved by explicit Migrate calls.
func (m *Manager) Migrated() int64 {
	return m.migrated
}

// Snapshot returns the ledger of every tier in preference order.
func (m *Manager) Snapshot() []TierUsage {
	out := make([]TierUsage, 0, numTiers)
	for _, t := range tierOrder {
		st := m.tiers[t]
		out = append(out, TierUsage{
			Tier:      t,
			Available: m.available(t),
			Limit:     st.limit,
			Used:      st.used,
			Cold:      st.cold,
			Evicted:   m.evicted[t],
		})
	}
	return out
}

func (m *Manager) available(t Tier) bool {
	return m.caps.Has(t)
}

// accept credits up to bytes to t, bounded by its remaining room, and
// returns how many were credited.
func (m *Manager) accept(t Tier, bytes int64) int64 {
	st := &m.tiers[t]
	n := min(bytes, st.room())
	st.used += n
	return n
}

// discard accounts for bytes that no longer exist in any tier.
//
// LOSSY: this is the only place data is given up. Callers that cannot
// tolerate loss must configure a Slow tier large enough to absorb pressure.
func (m *Manager) discard(from Tier, bytes int64, reason string) {
	m.discarded = satAdd(m.discarded, bytes)
	logrus.WithFields(logrus.Fields{
		"tier":   from,
		"bytes":  bytes,
		"reason": reason,
	}).Warn("memtier: discarding bytes with no tier to hold them")
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// satAdd adds two non-negative values, saturating at Unbounded.
func satAdd(a, b int64) int64 {
	if a > Unbounded-b {
		return Unbounded
	}
	return a + b
}
