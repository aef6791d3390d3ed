package trace

import (
	"testing"
)

func TestTierTrace_RecordAllocation_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	tt := NewTierTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN an allocation record is recorded
	tt.RecordAllocation(AllocationRecord{Bytes: 64, Tier: "fast"})

	// THEN the trace contains one allocation record with correct data
	if len(tt.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(tt.Allocations))
	}
	if tt.Allocations[0].Tier != "fast" {
		t.Errorf("expected tier fast, got %s", tt.Allocations[0].Tier)
	}
	if tt.Allocations[0].Seq != 1 {
		t.Errorf("expected seq 1, got %d", tt.Allocations[0].Seq)
	}
}

func TestTierTrace_SequenceSpansRecordKinds(t *testing.T) {
	// GIVEN a trace
	tt := NewTierTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN allocations and movements interleave
	tt.RecordAllocation(AllocationRecord{Bytes: 32, Tier: "fast"})
	tt.RecordMovement(MovementRecord{Kind: MoveEvictHot, From: "fast", To: "medium", Requested: 16, Moved: 16})
	tt.RecordAllocation(AllocationRecord{Bytes: 48, Tier: "fast"})

	// THEN sequence numbers reflect global call order
	if tt.Allocations[0].Seq != 1 || tt.Movements[0].Seq != 2 || tt.Allocations[1].Seq != 3 {
		t.Errorf("unexpected sequence: alloc0=%d move0=%d alloc1=%d",
			tt.Allocations[0].Seq, tt.Movements[0].Seq, tt.Allocations[1].Seq)
	}
}

func TestTierTrace_LevelNone_RecordsNothing(t *testing.T) {
	tt := NewTierTrace(TraceConfig{Level: TraceLevelNone})
	tt.RecordAllocation(AllocationRecord{Bytes: 1, Tier: "medium"})
	tt.RecordMovement(MovementRecord{Kind: MoveMigrate, From: "slow", To: "medium", Moved: 1})
	if len(tt.Allocations) != 0 || len(tt.Movements) != 0 {
		t.Errorf("expected no records at level none, got %d/%d", len(tt.Allocations), len(tt.Movements))
	}
}

func TestTierTrace_NilIsDisabled(t *testing.T) {
	var tt *TierTrace
	if tt.Enabled() {
		t.Error("nil trace must report disabled")
	}
	// must not panic
	tt.RecordAllocation(AllocationRecord{Bytes: 1})
	tt.RecordMovement(MovementRecord{Kind: MoveMigrate})
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"detailed", false},
		{"invalid", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.valid)
		}
	}
}
