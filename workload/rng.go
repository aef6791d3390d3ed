// Package workload generates deterministic attention inputs.
package workload

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// RunKey identifies a reproducible run. Two runs with the same key and
// configuration generate identical tensors.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

const (
	// SubsystemQueries seeds query tensors. It uses the master seed directly.
	SubsystemQueries = "queries"
	SubsystemKeys    = "keys"
	SubsystemValues  = "values"
)

// SubsystemWorker returns the subsystem name for bench worker N.
func SubsystemWorker(id int) string {
	return fmt.Sprintf("worker_%d", id)
}

// PartitionedRNG hands out isolated, deterministically seeded generators per
// subsystem, so drawing more keys never shifts the values stream.
//
// Derivation:
//   - SubsystemQueries: the master seed
//   - everything else: master seed XOR fnv1a64(name)
//
// Not safe for concurrent use. Workers should each derive their own.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached generator for name, creating it on first
// use. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemQueries {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

// Derive returns an independent PartitionedRNG keyed off subsystem name,
// for handing to a worker goroutine.
func (p *PartitionedRNG) Derive(name string) *PartitionedRNG {
	return NewPartitionedRNG(RunKey(p.ForSubsystem(name).Int63()))
}

// Key returns the RunKey this generator was built from.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
