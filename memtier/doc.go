// Package memtier places allocations across a three-level memory hierarchy
// and migrates charge between levels under pressure.
//
// # Reading Guide
//
//   - tier.go: the Tier enum and the preference ordering table
//   - capabilities.go: which tiers exist and how large they are (environment-derived)
//   - manager.go: the capacity ledger (Allocate, Migrate, MarkCold/MarkHot, Usage)
//   - eviction.go: cascading eviction down the ordering table
//   - metrics.go: Prometheus collector over a Manager
//
// The Manager is a ledger, not a buffer pool. Callers own their bytes and use
// the returned Tier to decide how to hold them (see package loader).
//
// A Manager is single-writer: it does no locking, and concurrent callers must
// serialize access externally or use one Manager per worker.
package memtier
