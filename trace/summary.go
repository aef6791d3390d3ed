package trace

// TraceSummary aggregates statistics from a TierTrace.
type TraceSummary struct {
	TotalAllocations  int
	AllocationsByTier map[string]int   // tier → number of allocations placed there
	BytesByTier       map[string]int64 // tier → bytes requested by allocations placed there
	Migrations        int
	BytesMigrated     int64
	Evictions         int
	BytesEvicted      int64
	BytesDropped      int64 // eviction drops plus allocation discards
}

// Summarize computes aggregate statistics from a TierTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(tt *TierTrace) *TraceSummary {
	summary := &TraceSummary{
		AllocationsByTier: make(map[string]int),
		BytesByTier:       make(map[string]int64),
	}
	if tt == nil {
		return summary
	}

	summary.TotalAllocations = len(tt.Allocations)
	for _, a := range tt.Allocations {
		summary.AllocationsByTier[a.Tier]++
		summary.BytesByTier[a.Tier] += a.Bytes
		summary.BytesDropped += a.Discarded
	}

	for _, m := range tt.Movements {
		switch m.Kind {
		case MoveMigrate:
			summary.Migrations++
			summary.BytesMigrated += m.Moved
		case MoveEvictCold, MoveEvictHot:
			summary.Evictions++
			summary.BytesEvicted += m.Moved + m.Dropped
		}
		summary.BytesDropped += m.Dropped
	}

	return summary
}
