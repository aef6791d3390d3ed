package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/inference-sim/tiered-attention/memtier"
)

// formatBytes renders a byte count for humans.
func formatBytes(n int64) string {
	if n == memtier.Unbounded {
		return "unbounded"
	}
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(uint64(n))
}

func availability(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// printLedger writes one row per tier of a manager snapshot.
func printLedger(w io.Writer, snapshot []memtier.TierUsage) {
	_, _ = fmt.Fprintf(w, "%-8s %-10s %-12s %-12s %-12s %-12s\n", "TIER", "AVAILABLE", "LIMIT", "USED", "COLD", "EVICTED")
	for _, u := range snapshot {
		_, _ = fmt.Fprintf(w, "%-8s %-10s %-12s %-12s %-12s %-12s\n",
			u.Tier, availability(u.Available), formatBytes(u.Limit), formatBytes(u.Used), formatBytes(u.Cold), formatBytes(u.Evicted))
	}
}
