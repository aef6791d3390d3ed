package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/tiered-attention/attention"
	"github.com/inference-sim/tiered-attention/memtier"
	"github.com/inference-sim/tiered-attention/workload"
)

var (
	workers    int // Concurrent engines
	iterations int // Passes per engine
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run independent engines concurrently and report their tier ledgers",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts := resolveAttendOptions(cmd.Flags(), cfg.Attention)
		if err := runBench(cmd.Context(), cmd.OutOrStdout(), resolveCapabilities(cfg), opts, workers, iterations); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// workerResult is what one bench worker reports back.
type workerResult struct {
	passes    int
	keyTier   memtier.Tier
	charged   int64
	discarded int64
	migrated  int64
	usage     [3]int64
	checksum  float64
}

// runBench gives every worker its own engine and input stream; engines are
// single-writer so nothing is shared between goroutines. Each worker keeps
// charging its manager pass after pass, so later passes see the tiers under
// pressure.
func runBench(ctx context.Context, w io.Writer, caps memtier.Capabilities, opts attendOptions, workers, iterations int) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if workers <= 0 {
		return fmt.Errorf("workers must be > 0, got %d", workers)
	}
	if iterations <= 0 {
		return fmt.Errorf("iterations must be > 0, got %d", iterations)
	}

	root := workload.NewPartitionedRNG(workload.NewRunKey(opts.Seed))
	streams := make([]*workload.PartitionedRNG, workers)
	for i := range streams {
		streams[i] = root.Derive(workload.SubsystemWorker(i))
	}

	results := make([]workerResult, workers)
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i // per-iteration copy; go.mod targets go 1.21 (pre-1.22 loop semantics)
		g.Go(func() error {
			pa := attention.New(caps)
			r := &results[i]
			for pass := 0; pass < iterations; pass++ {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("worker %d: %w", i, err)
				}
				in := workload.Generate(streams[i], opts.Tokens, opts.Dim)
				res := opts.run(pa, in)
				r.passes++
				r.keyTier = res.KeyTier
				r.checksum += checksum(res.Output)
			}
			r.charged = pa.Charged()
			r.discarded = pa.Discarded()
			r.migrated = pa.Migrated()
			r.usage[0], r.usage[1], r.usage[2] = pa.Usage()
			logrus.WithFields(logrus.Fields{
				"worker":  i,
				"passes":  r.passes,
				"charged": r.charged,
			}).Debug("bench: worker done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	_, _ = fmt.Fprintf(w, "mode=%s tokens=%d dim=%d workers=%d iterations=%d\n", opts.Mode, opts.Tokens, opts.Dim, workers, iterations)
	var total workerResult
	for i, r := range results {
		_, _ = fmt.Fprintf(w, "worker %-3d last tier=%-6s fast=%-10s medium=%-10s slow=%-10s migrated=%-10s discarded=%s\n",
			i, r.keyTier, formatBytes(r.usage[0]), formatBytes(r.usage[1]), formatBytes(r.usage[2]), formatBytes(r.migrated), formatBytes(r.discarded))
		total.passes += r.passes
		total.charged += r.charged
		total.discarded += r.discarded
	}
	_, _ = fmt.Fprintf(w, "total passes=%d charged=%s discarded=%s elapsed=%s\n",
		total.passes, formatBytes(total.charged), formatBytes(total.discarded), elapsed.Round(time.Microsecond))
	return nil
}

func init() {
	benchCmd.Flags().IntVar(&workers, "workers", 4, "Number of concurrent engines")
	benchCmd.Flags().IntVar(&iterations, "iterations", 8, "Attention passes per engine")
}
