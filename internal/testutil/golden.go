// Package testutil provides shared test infrastructure for the tiered-attention
// packages. It consolidates golden dataset types and assertion helpers used
// by the attention tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// AttentionGolden represents the structure of testdata/attention_golden.json.
type AttentionGolden struct {
	Cases []AttentionCase `json:"cases"`
}

// AttentionCase is one attention input with the output of an unstabilized
// softmax reference computed in double precision.
type AttentionCase struct {
	Name        string    `json:"name"`
	Mode        string    `json:"mode"` // "sliding" or "block-sparse"
	Dim         int       `json:"dim"`
	Window      int       `json:"window"`
	BlockSize   int       `json:"block_size"`
	BlockWindow int       `json:"block_window"`
	Q           []float32 `json:"q"`
	K           []float32 `json:"k"`
	V           []float32 `json:"v"`
	Expected    []float32 `json:"expected"`

	// Optional tier setup. Cases without limits run on default capabilities.
	HasFast       bool    `json:"has_fast"`
	HasSlow       bool    `json:"has_slow"`
	Limits        []int64 `json:"limits"` // fast, medium, slow
	KeyTier       string  `json:"key_tier"`
	ValueTier     string  `json:"value_tier"`
	ExpectedUsage []int64 `json:"expected_usage"` // fast, medium, slow
}

// LoadAttentionGolden loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func LoadAttentionGolden(t *testing.T) *AttentionGolden {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "attention_golden.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset AttentionGolden
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Cases) == 0 {
		t.Fatal("golden dataset has no cases")
	}
	return &dataset
}

// AssertFloat32SliceNear compares two slices element-wise with an absolute
// tolerance.
func AssertFloat32SliceNear(t *testing.T, name string, want, got []float32, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length mismatch: got %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		diff := math.Abs(float64(want[i]) - float64(got[i]))
		if diff > tol || math.IsNaN(float64(got[i])) {
			t.Errorf("%s[%d]: got %v, want %v (diff=%v)", name, i, got[i], want[i], diff)
		}
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
