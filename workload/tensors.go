package workload

import (
	"fmt"
	"math/rand"
)

// Tensors is one set of row-major attention inputs.
type Tensors struct {
	Q, K, V []float32
	Tokens  int
	Dim     int
}

// Bytes returns the size of one of K or V in bytes.
func (t Tensors) Bytes() int64 {
	return int64(len(t.K)) * 4
}

// Generate draws tokens*dim uniform values in [-1, 1) for each of Q, K and V
// from their own subsystems.
func Generate(rng *PartitionedRNG, tokens, dim int) Tensors {
	if tokens < 0 || dim <= 0 {
		panic(fmt.Sprintf("workload: invalid shape tokens=%d dim=%d", tokens, dim))
	}
	n := tokens * dim
	return Tensors{
		Q:      uniform(rng.ForSubsystem(SubsystemQueries), n),
		K:      uniform(rng.ForSubsystem(SubsystemKeys), n),
		V:      uniform(rng.ForSubsystem(SubsystemValues), n),
		Tokens: tokens,
		Dim:    dim,
	}
}

func uniform(r *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = r.Float32()*2 - 1
	}
	return out
}
