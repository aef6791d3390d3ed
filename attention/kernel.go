package attention

import "math"

// float32Size is the byte width of one element of q, k or v.
const float32Size = 4

// slidingRange returns the inclusive key range visible to query i.
func slidingRange(i, window int) (start, end int) {
	return max(0, i-window+1), i
}

// blockRange returns the inclusive key range visible to query i when tokens
// are grouped into blocks of blockSize and each block sees blockWindow
// blocks of context ending with its own (causal within the block).
func blockRange(i, blockSize, blockWindow int) (start, end int) {
	b := i / blockSize
	return max(0, b-blockWindow+1) * blockSize, i
}

// attendRow writes the softmax-weighted sum of value rows start..end into
// out. Scores are shifted by their maximum before exponentiation so large
// dot products cannot overflow. weights is scratch space and is returned for
// reuse.
func attendRow(out, qi, k, v []float32, dim, start, end int, weights []float32) []float32 {
	weights = weights[:0]
	maxScore := float32(math.Inf(-1))
	for j := start; j <= end; j++ {
		s := dot(qi, k[j*dim:(j+1)*dim])
		weights = append(weights, s)
		if s > maxScore {
			maxScore = s
		}
	}

	var denom float32
	for idx, s := range weights {
		w := float32(math.Exp(float64(s - maxScore)))
		weights[idx] = w
		denom += w
	}

	for idx, w := range weights {
		weight := w / denom
		j := start + idx
		vj := v[j*dim : (j+1)*dim]
		for c := range out {
			out[c] += weight * vj[c]
		}
	}
	return weights
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
