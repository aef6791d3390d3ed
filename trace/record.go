// Package trace provides decision-trace recording for tier placement analysis.
// This package has no dependencies on memtier/ or attention/; it stores pure data types.
package trace

// MovementKind names why charge moved between tiers.
type MovementKind string

const (
	// MoveMigrate is an explicit caller-requested migration.
	MoveMigrate MovementKind = "migrate"
	// MoveEvictCold is eviction of bytes previously marked cold.
	MoveEvictCold MovementKind = "evict-cold"
	// MoveEvictHot is the fallback eviction of bytes regardless of hotness.
	MoveEvictHot MovementKind = "evict-hot"
)

// AllocationRecord captures a single placement decision.
type AllocationRecord struct {
	Seq       int64
	Bytes     int64  // requested size
	Tier      string // tier the allocation was charged to
	Discarded int64  // part of the request that could not be held anywhere
}

// MovementRecord captures charge moving out of a tier.
type MovementRecord struct {
	Seq       int64
	Kind      MovementKind
	From      string
	To        string // empty when the bytes were dropped with no destination
	Requested int64
	Moved     int64 // bytes credited to To
	Dropped   int64 // bytes removed from From without a destination
}
