package attention

import "github.com/inference-sim/tiered-attention/memtier"

// blockRotation keeps a bounded window of one slow-tier buffer's blocks
// charged to medium while block-sparse attention walks the sequence.
type blockRotation struct {
	mgr       *memtier.Manager
	tokens    int
	dim       int
	blockSize int
	window    int
	numBlocks int
}

func (r *blockRotation) blockBytes(b int) int64 {
	first := b * r.blockSize
	last := min(first+r.blockSize, r.tokens)
	return int64(last-first) * int64(r.dim) * float32Size
}

// load brings block b into medium and marks it hot.
func (r *blockRotation) load(b int) {
	bytes := r.blockBytes(b)
	r.mgr.Migrate(memtier.Slow, memtier.Medium, bytes)
	r.mgr.MarkHot(memtier.Medium, bytes)
}

// advance runs after block b is finished. Once window blocks have been
// processed the oldest resident block goes cold and back to slow; the next
// block, if any, is loaded.
func (r *blockRotation) advance(b int) {
	processed := b + 1
	if processed >= r.window {
		bytes := r.blockBytes(processed - r.window)
		r.mgr.MarkCold(memtier.Medium, bytes)
		r.mgr.Migrate(memtier.Medium, memtier.Slow, bytes)
	}
	if b+1 < r.numBlocks {
		r.load(b + 1)
	}
}
