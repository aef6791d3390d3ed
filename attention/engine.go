package attention

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/tiered-attention/memtier"
)

// Result is the output of one attention call and where its buffers landed.
type Result struct {
	Output    []float32 // tokens*dim, row-major
	KeyTier   memtier.Tier
	ValueTier memtier.Tier
}

// PagedAttention runs attention against key/value buffers placed through an
// owned tiered memory manager.
type PagedAttention struct {
	mgr *memtier.Manager
}

// New creates an engine whose manager uses the capabilities' capacities.
func New(caps memtier.Capabilities, opts ...memtier.Option) *PagedAttention {
	return &PagedAttention{mgr: memtier.New(caps, opts...)}
}

// NewWithLimits creates an engine with explicit tier limits, useful for
// simulating small tiers.
func NewWithLimits(caps memtier.Capabilities, fastLimit, mediumLimit, slowLimit int64, opts ...memtier.Option) *PagedAttention {
	return &PagedAttention{mgr: memtier.NewWithLimits(caps, fastLimit, mediumLimit, slowLimit, opts...)}
}

// Usage returns the bytes charged to the fast, medium and slow tiers.
func (pa *PagedAttention) Usage() (fast, medium, slow int64) {
	return pa.mgr.Usage()
}

// Snapshot returns the owned manager's per-tier ledger.
func (pa *PagedAttention) Snapshot() []memtier.TierUsage {
	return pa.mgr.Snapshot()
}

// Charged returns every byte the engine has placed since construction.
func (pa *PagedAttention) Charged() int64 { return pa.mgr.Charged() }

// Discarded returns bytes dropped because no tier could hold them.
func (pa *PagedAttention) Discarded() int64 { return pa.mgr.Discarded() }

// Migrated returns bytes moved between tiers by explicit migrations.
func (pa *PagedAttention) Migrated() int64 { return pa.mgr.Migrated() }

// Collector exposes the owned manager's ledger as Prometheus metrics.
func (pa *PagedAttention) Collector() *memtier.Collector {
	return memtier.NewCollector(pa.mgr)
}

// Compute runs sliding-window attention: query i attends to keys
// max(0, i-window+1) through i.
//
// q, k and v are row-major with dim features per token and must hold the
// same number of tokens. Shape violations panic.
//
// Keys and values are each charged len(k)*4 bytes. A buffer that lands on
// the slow tier has the window's working set (window*dim*4 bytes) migrated
// into medium before the kernel runs.
func (pa *PagedAttention) Compute(q, k, v []float32, dim, window int) Result {
	tokens := checkShapes(q, k, v, dim)
	if window <= 0 {
		panic(fmt.Sprintf("attention: window must be > 0, got %d", window))
	}

	keyTier, valueTier := pa.place(k)
	windowBytes := int64(window) * int64(dim) * float32Size
	for _, tier := range []memtier.Tier{keyTier, valueTier} {
		if tier == memtier.Slow {
			pa.mgr.Migrate(memtier.Slow, memtier.Medium, windowBytes)
		}
	}

	out := make([]float32, tokens*dim)
	weights := make([]float32, 0, min(window, tokens))
	for i := 0; i < tokens; i++ {
		start, end := slidingRange(i, window)
		weights = attendRow(out[i*dim:(i+1)*dim], q[i*dim:(i+1)*dim], k, v, dim, start, end, weights)
	}

	logrus.WithFields(logrus.Fields{
		"tokens":     tokens,
		"dim":        dim,
		"window":     window,
		"key_tier":   keyTier,
		"value_tier": valueTier,
	}).Debug("attention: sliding window computed")
	return Result{Output: out, KeyTier: keyTier, ValueTier: valueTier}
}

// ComputeBlockSparse runs block-sparse attention. Tokens are split into
// contiguous blocks of blockSize (the last may be shorter); a query in block
// b attends to every key from the start of block max(0, b-blockWindow+1)
// through itself.
//
// A key or value buffer on the slow tier keeps at most blockWindow of its
// blocks in medium: block 0 is loaded up front, and after each block the
// oldest resident block is marked cold and sent back to slow while the next
// block is brought in and marked hot.
func (pa *PagedAttention) ComputeBlockSparse(q, k, v []float32, dim, blockSize, blockWindow int) Result {
	tokens := checkShapes(q, k, v, dim)
	if blockSize <= 0 {
		panic(fmt.Sprintf("attention: blockSize must be > 0, got %d", blockSize))
	}
	if blockWindow <= 0 {
		panic(fmt.Sprintf("attention: blockWindow must be > 0, got %d", blockWindow))
	}

	keyTier, valueTier := pa.place(k)
	numBlocks := (tokens + blockSize - 1) / blockSize

	var rotations []*blockRotation
	for _, tier := range []memtier.Tier{keyTier, valueTier} {
		if tier == memtier.Slow {
			rotations = append(rotations, &blockRotation{
				mgr:       pa.mgr,
				tokens:    tokens,
				dim:       dim,
				blockSize: blockSize,
				window:    blockWindow,
				numBlocks: numBlocks,
			})
		}
	}
	if numBlocks > 0 {
		for _, r := range rotations {
			r.load(0)
		}
	}

	out := make([]float32, tokens*dim)
	weights := make([]float32, 0, min(blockWindow*blockSize, tokens))
	for b := 0; b < numBlocks; b++ {
		first := b * blockSize
		last := min(first+blockSize, tokens)
		for i := first; i < last; i++ {
			start, end := blockRange(i, blockSize, blockWindow)
			weights = attendRow(out[i*dim:(i+1)*dim], q[i*dim:(i+1)*dim], k, v, dim, start, end, weights)
		}
		for _, r := range rotations {
			r.advance(b)
		}
	}

	logrus.WithFields(logrus.Fields{
		"tokens":       tokens,
		"dim":          dim,
		"block_size":   blockSize,
		"block_window": blockWindow,
		"key_tier":     keyTier,
		"value_tier":   valueTier,
	}).Debug("attention: block-sparse computed")
	return Result{Output: out, KeyTier: keyTier, ValueTier: valueTier}
}

// place charges the key and value buffers against the manager.
func (pa *PagedAttention) place(k []float32) (keyTier, valueTier memtier.Tier) {
	bytes := int64(len(k)) * float32Size
	keyTier = pa.mgr.Allocate(bytes)
	valueTier = pa.mgr.Allocate(bytes)
	return keyTier, valueTier
}

// checkShapes validates q/k/v against dim and returns the token count.
func checkShapes(q, k, v []float32, dim int) int {
	if dim <= 0 {
		panic(fmt.Sprintf("attention: dim must be > 0, got %d", dim))
	}
	if len(k) != len(v) {
		panic(fmt.Sprintf("attention: len(k)=%d != len(v)=%d", len(k), len(v)))
	}
	if len(q)%dim != 0 || len(k)%dim != 0 {
		panic(fmt.Sprintf("attention: len(q)=%d and len(k)=%d must be multiples of dim=%d", len(q), len(k), dim))
	}
	if len(q)/dim != len(k)/dim {
		panic(fmt.Sprintf("attention: q has %d tokens, k has %d", len(q)/dim, len(k)/dim))
	}
	return len(q) / dim
}
