package memtier

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/tiered-attention/trace"
)

func caps(hasFast, hasSlow bool) Capabilities {
	c := DefaultCapabilities()
	c.HasFast = hasFast
	c.HasSlow = hasSlow
	return c
}

func usage(m *Manager) [3]int64 {
	f, md, s := m.Usage()
	return [3]int64{f, md, s}
}

// assertLedger checks the per-tier invariant and byte conservation.
func assertLedger(t *testing.T, m *Manager) {
	t.Helper()
	var sum int64
	for _, u := range m.Snapshot() {
		require.GreaterOrEqual(t, u.Cold, int64(0), "tier %s cold", u.Tier)
		require.LessOrEqual(t, u.Cold, u.Used, "tier %s cold <= used", u.Tier)
		require.LessOrEqual(t, u.Used, u.Limit, "tier %s used <= limit", u.Tier)
		sum += u.Used
	}
	require.Equal(t, m.Charged(), sum+m.Discarded(), "used + discarded must equal charged")
}

func TestManager_FastCachingCascadesThroughMedium(t *testing.T) {
	// GIVEN fast=64, medium=64, slow=256 with every tier present
	m := NewWithLimits(caps(true, true), 64, 64, 256)

	// WHEN allocations overflow the fast tier
	// THEN older charge cascades down the hierarchy
	assert.Equal(t, Fast, m.Allocate(32))
	assert.Equal(t, [3]int64{32, 0, 0}, usage(m))

	assert.Equal(t, Fast, m.Allocate(48))
	assert.Equal(t, [3]int64{64, 16, 0}, usage(m))

	assert.Equal(t, Fast, m.Allocate(64))
	assert.Equal(t, [3]int64{64, 64, 16}, usage(m))
	assertLedger(t, m)
}

func TestManager_MediumAndSlowFallback(t *testing.T) {
	// GIVEN no accelerator, medium=64, slow=512
	m := NewWithLimits(caps(false, true), 0, 64, 512)

	assert.Equal(t, Medium, m.Allocate(32))
	assert.Equal(t, [3]int64{0, 32, 0}, usage(m))

	assert.Equal(t, Medium, m.Allocate(64))
	assert.Equal(t, [3]int64{0, 64, 32}, usage(m))

	// an allocation larger than medium empties it first, then lands on slow
	assert.Equal(t, Slow, m.Allocate(128))
	assert.Equal(t, [3]int64{0, 0, 224}, usage(m))
	assertLedger(t, m)
}

func TestManager_LargeAllocation_SkipsFast(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	assert.Equal(t, Slow, m.Allocate(200))
	assert.Equal(t, [3]int64{0, 0, 200}, usage(m))
}

func TestManager_NoFastTier_IgnoresFastLimit(t *testing.T) {
	m := NewWithLimits(caps(false, true), 64, 64, 256)
	assert.Equal(t, Medium, m.Allocate(32))
	assert.Equal(t, [3]int64{0, 32, 0}, usage(m))
}

func TestManager_ColdBytesEvictedFirst(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(64)
	m.MarkCold(Fast, 32)

	assert.Equal(t, Fast, m.Allocate(32))
	assert.Equal(t, [3]int64{64, 32, 0}, usage(m))
	assert.Equal(t, int64(0), m.Cold(Fast), "evicted cold bytes leave the cold set")
	assert.Equal(t, int64(0), m.Cold(Medium), "evicted bytes arrive hot")
	assertLedger(t, m)
}

func TestManager_ColdEvictionBeforeHot_SmallDeficit(t *testing.T) {
	// GIVEN a full fast tier with 16 cold bytes
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(16)
	m.MarkCold(Fast, 16)
	m.Allocate(48)

	// WHEN a 16-byte allocation needs room
	assert.Equal(t, Fast, m.Allocate(16))

	// THEN exactly the cold 16 bytes moved down
	assert.Equal(t, [3]int64{64, 16, 0}, usage(m))
	assert.Equal(t, int64(0), m.Cold(Fast))
}

func TestManager_Migrate_Manual(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(32)

	m.Migrate(Fast, Medium, 16)
	assert.Equal(t, [3]int64{16, 16, 0}, usage(m))

	m.Migrate(Medium, Slow, 8)
	assert.Equal(t, [3]int64{16, 8, 8}, usage(m))
	assertLedger(t, m)
}

func TestManager_Migrate_RoundTripRestoresUsage(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(32)
	before := usage(m)

	m.Migrate(Fast, Medium, 16)
	m.Migrate(Medium, Fast, 16)

	assert.Equal(t, before, usage(m))
}

func TestManager_Migrate_BoundedBySourceUsage(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(8)
	m.Migrate(Fast, Slow, 1000)
	assert.Equal(t, [3]int64{0, 0, 8}, usage(m))
}

func TestManager_Migrate_UnavailableTier_IsNoOp(t *testing.T) {
	tests := []struct {
		name     string
		caps     Capabilities
		from, to Tier
	}{
		{"into missing fast", caps(false, true), Medium, Fast},
		{"into missing slow", caps(true, false), Medium, Slow},
		{"out of missing slow", caps(false, false), Slow, Medium},
		{"same tier", caps(true, true), Medium, Medium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewWithLimits(tc.caps, 64, 64, 256)
			m.Allocate(32)
			before := usage(m)
			m.Migrate(tc.from, tc.to, 16)
			assert.Equal(t, before, usage(m))
			assert.Equal(t, int64(0), m.Migrated())
		})
	}
}

func TestManager_Migrate_DestinationFull_RemainderStaysInSource(t *testing.T) {
	// GIVEN slow can hold only 16 bytes
	m := NewWithLimits(caps(false, true), 0, 64, 16)
	m.Allocate(48)

	// WHEN 48 bytes are pushed to slow
	m.Migrate(Medium, Slow, 48)

	// THEN only what fits moves; nothing is lost
	assert.Equal(t, [3]int64{0, 32, 16}, usage(m))
	assert.Equal(t, int64(0), m.Discarded())
	assertLedger(t, m)
}

func TestManager_Migrate_ColdBytesTravel(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(32)
	m.MarkCold(Fast, 8)

	m.Migrate(Fast, Medium, 16)

	assert.Equal(t, int64(0), m.Cold(Fast))
	assert.Equal(t, int64(8), m.Cold(Medium))
	assertLedger(t, m)
}

func TestManager_Migrate_MakesRoomInDestination(t *testing.T) {
	// GIVEN medium is full and slow holds a prefetchable working set
	m := NewWithLimits(caps(false, true), 0, 16, 1024)
	m.Allocate(32) // slow
	m.Migrate(Slow, Medium, 16)
	require.Equal(t, [3]int64{0, 16, 16}, usage(m))

	// WHEN more bytes are pulled into medium
	m.Migrate(Slow, Medium, 16)

	// THEN medium evicted its resident bytes back to slow first
	assert.Equal(t, [3]int64{0, 16, 16}, usage(m))
	assert.Equal(t, int64(16), m.Snapshot()[Medium].Evicted)
	assertLedger(t, m)
}

func TestManager_MarkColdThenHot_RestoresColdBytes(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(64)
	m.MarkCold(Fast, 8)
	before := m.Cold(Fast)

	m.MarkCold(Fast, 40)
	m.MarkHot(Fast, 40)

	assert.Equal(t, before, m.Cold(Fast))
}

func TestManager_MarkCold_Saturates(t *testing.T) {
	m := NewWithLimits(caps(true, true), 64, 64, 256)
	m.Allocate(32)

	m.MarkCold(Fast, 1000)
	assert.Equal(t, int64(32), m.Cold(Fast), "cold never exceeds used")

	m.MarkHot(Fast, 1000)
	assert.Equal(t, int64(0), m.Cold(Fast), "cold never drops below zero")

	// invalid tiers and negative sizes are ignored
	m.MarkCold(Tier(-1), 8)
	m.MarkHot(Tier(5), 8)
	m.MarkCold(Fast, -8)
	assert.Equal(t, int64(0), m.Cold(Fast))
}

func TestManager_NoSlowTier_DropsEvictedBytes(t *testing.T) {
	// GIVEN only host memory
	m := NewWithLimits(caps(false, false), 0, 64, 0)

	assert.Equal(t, Medium, m.Allocate(48))

	// WHEN medium must make room with nowhere to evict to
	assert.Equal(t, Medium, m.Allocate(32))

	// THEN the evicted bytes are dropped and accounted for
	assert.Equal(t, [3]int64{0, 64, 0}, usage(m))
	assert.Equal(t, int64(16), m.Discarded())
	assertLedger(t, m)

	// AND an allocation larger than medium keeps what fits
	assert.Equal(t, Medium, m.Allocate(100))
	assert.Equal(t, [3]int64{0, 64, 0}, usage(m))
	assert.Equal(t, int64(16+64+36), m.Discarded())
	assertLedger(t, m)
}

func TestManager_SlowOverflow_DiscardsExcess(t *testing.T) {
	m := NewWithLimits(caps(false, true), 0, 16, 32)

	assert.Equal(t, Slow, m.Allocate(64))
	assert.Equal(t, [3]int64{0, 0, 32}, usage(m))
	assert.Equal(t, int64(32), m.Discarded())
	assertLedger(t, m)
}

func TestManager_NegativeInputs_Clamp(t *testing.T) {
	m := NewWithLimits(caps(true, true), -1, 64, 256)
	assert.Equal(t, int64(0), m.Limit(Fast))

	assert.Equal(t, Fast, m.Allocate(-10), "zero bytes fit the zero-sized fast tier")
	m.Migrate(Medium, Slow, -5)
	assert.Equal(t, [3]int64{0, 0, 0}, usage(m))
	assert.Equal(t, int64(0), m.Charged())
}

func TestManager_New_UsesCapacities(t *testing.T) {
	c := Capabilities{HasFast: true, HasSlow: true, FastCapacity: 10, MediumCapacity: 20, SlowCapacity: 30}
	m := New(c)
	assert.Equal(t, int64(10), m.Limit(Fast))
	assert.Equal(t, int64(20), m.Limit(Medium))
	assert.Equal(t, int64(30), m.Limit(Slow))
	assert.Equal(t, c, m.Capabilities())
}

func TestManager_UnboundedSlow_DoesNotOverflow(t *testing.T) {
	m := New(caps(false, true))
	assert.Equal(t, Slow, m.Allocate(Unbounded))
	assert.Equal(t, Slow, m.Allocate(Unbounded))
	_, _, slow := m.Usage()
	assert.Equal(t, Unbounded, slow)
}

func TestManager_Trace_RecordsDecisionsInCallOrder(t *testing.T) {
	// GIVEN the fast-caching scenario with tracing on
	tt := trace.NewTierTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	m := NewWithLimits(caps(true, true), 64, 64, 256, WithTrace(tt))

	m.Allocate(32)
	m.Allocate(48)
	m.Allocate(64)

	// THEN allocations and nested evictions are recorded in execution order
	require.Len(t, tt.Allocations, 3)
	require.Len(t, tt.Movements, 3)

	assert.Equal(t, trace.MovementRecord{Seq: 2, Kind: trace.MoveEvictHot, From: "fast", To: "medium", Requested: 16, Moved: 16}, tt.Movements[0])
	assert.Equal(t, trace.MovementRecord{Seq: 4, Kind: trace.MoveEvictHot, From: "medium", To: "slow", Requested: 16, Moved: 16}, tt.Movements[1])
	assert.Equal(t, trace.MovementRecord{Seq: 5, Kind: trace.MoveEvictHot, From: "fast", To: "medium", Requested: 64, Moved: 64}, tt.Movements[2])
	assert.Equal(t, int64(6), tt.Allocations[2].Seq)

	summary := trace.Summarize(tt)
	assert.Equal(t, 3, summary.AllocationsByTier["fast"])
	assert.Equal(t, int64(96), summary.BytesEvicted)
}

func TestManager_RandomOperations_PreserveInvariants(t *testing.T) {
	configs := []struct {
		name               string
		caps               Capabilities
		fast, medium, slow int64
	}{
		{"all tiers", caps(true, true), 64, 128, 512},
		{"no fast", caps(false, true), 0, 96, 300},
		{"no slow", caps(true, false), 48, 64, 0},
		{"host only", caps(false, false), 0, 80, 0},
		{"tiny slow", caps(true, true), 32, 32, 40},
	}
	for _, cfg := range configs {
		t.Run(cfg.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			m := NewWithLimits(cfg.caps, cfg.fast, cfg.medium, cfg.slow)
			tiers := Tiers()
			for i := 0; i < 2000; i++ {
				switch rng.Intn(4) {
				case 0:
					m.Allocate(rng.Int63n(200))
				case 1:
					m.Migrate(tiers[rng.Intn(3)], tiers[rng.Intn(3)], rng.Int63n(200))
				case 2:
					m.MarkCold(tiers[rng.Intn(3)], rng.Int63n(100))
				case 3:
					m.MarkHot(tiers[rng.Intn(3)], rng.Int63n(100))
				}
				assertLedger(t, m)
			}
		})
	}
}
