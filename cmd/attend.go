package cmd

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inference-sim/tiered-attention/attention"
	"github.com/inference-sim/tiered-attention/memtier"
	"github.com/inference-sim/tiered-attention/trace"
	"github.com/inference-sim/tiered-attention/workload"
)

const (
	modeSliding     = "sliding"
	modeBlockSparse = "block-sparse"
)

var (
	// CLI flags shared by attend and bench
	mode        string // sliding or block-sparse
	tokens      int    // Sequence length
	dim         int    // Features per token
	window      int    // Sliding window in tokens
	blockSize   int    // Tokens per block
	blockWindow int    // Blocks of context per block
	seed        int64  // Seed for input generation

	// attend-only flags
	traceLevel  string // Tier decision trace level
	showMetrics bool   // Dump the tier ledger in Prometheus text format
)

// attendOptions is the fully resolved shape of one attention run.
type attendOptions struct {
	Mode        string
	Tokens      int
	Dim         int
	Window      int
	BlockSize   int
	BlockWindow int
	Seed        int64
	TraceLevel  trace.TraceLevel
	Metrics     bool
}

var attendCmd = &cobra.Command{
	Use:   "attend",
	Short: "Run one attention pass over generated inputs and report tier usage",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts := resolveAttendOptions(cmd.Flags(), cfg.Attention)
		if err := runAttend(cmd.OutOrStdout(), resolveCapabilities(cfg), opts); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// resolveAttendOptions merges flags with the config file. Explicitly set
// flags win; config values only replace flag defaults.
func resolveAttendOptions(flags *pflag.FlagSet, ac AttentionConfig) attendOptions {
	opts := attendOptions{
		Mode:        mode,
		Tokens:      tokens,
		Dim:         dim,
		Window:      window,
		BlockSize:   blockSize,
		BlockWindow: blockWindow,
		Seed:        seed,
		TraceLevel:  trace.TraceLevel(traceLevel),
		Metrics:     showMetrics,
	}
	if !flags.Changed("mode") && ac.Mode != "" {
		opts.Mode = ac.Mode
	}
	if !flags.Changed("tokens") && ac.Tokens > 0 {
		opts.Tokens = ac.Tokens
	}
	if !flags.Changed("dim") && ac.Dim > 0 {
		opts.Dim = ac.Dim
	}
	if !flags.Changed("window") && ac.Window > 0 {
		opts.Window = ac.Window
	}
	if !flags.Changed("block-size") && ac.BlockSize > 0 {
		opts.BlockSize = ac.BlockSize
	}
	if !flags.Changed("block-window") && ac.BlockWindow > 0 {
		opts.BlockWindow = ac.BlockWindow
	}
	return opts
}

func (o attendOptions) validate() error {
	if o.Tokens < 0 {
		return fmt.Errorf("tokens must be >= 0, got %d", o.Tokens)
	}
	if o.Dim <= 0 {
		return fmt.Errorf("dim must be > 0, got %d", o.Dim)
	}
	switch o.Mode {
	case modeSliding:
		if o.Window <= 0 {
			return fmt.Errorf("window must be > 0, got %d", o.Window)
		}
	case modeBlockSparse:
		if o.BlockSize <= 0 {
			return fmt.Errorf("block-size must be > 0, got %d", o.BlockSize)
		}
		if o.BlockWindow <= 0 {
			return fmt.Errorf("block-window must be > 0, got %d", o.BlockWindow)
		}
	default:
		return fmt.Errorf("unknown mode %q (valid: %s, %s)", o.Mode, modeSliding, modeBlockSparse)
	}
	if o.TraceLevel != "" && !trace.IsValidTraceLevel(string(o.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q", o.TraceLevel)
	}
	return nil
}

// run executes one pass on a fresh engine.
func (o attendOptions) run(pa *attention.PagedAttention, in workload.Tensors) attention.Result {
	if o.Mode == modeBlockSparse {
		return pa.ComputeBlockSparse(in.Q, in.K, in.V, in.Dim, o.BlockSize, o.BlockWindow)
	}
	return pa.Compute(in.Q, in.K, in.V, in.Dim, o.Window)
}

func runAttend(w io.Writer, caps memtier.Capabilities, opts attendOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	var engineOpts []memtier.Option
	var tt *trace.TierTrace
	if opts.TraceLevel == trace.TraceLevelDecisions {
		tt = trace.NewTierTrace(trace.TraceConfig{Level: opts.TraceLevel})
		engineOpts = append(engineOpts, memtier.WithTrace(tt))
	}
	pa := attention.New(caps, engineOpts...)

	in := workload.Generate(workload.NewPartitionedRNG(workload.NewRunKey(opts.Seed)), opts.Tokens, opts.Dim)
	res := opts.run(pa, in)

	_, _ = fmt.Fprintf(w, "mode=%s tokens=%d dim=%d buffer=%s\n", opts.Mode, opts.Tokens, opts.Dim, formatBytes(in.Bytes()))
	_, _ = fmt.Fprintf(w, "key tier=%s value tier=%s\n", res.KeyTier, res.ValueTier)
	_, _ = fmt.Fprintf(w, "output checksum=%.6f\n", checksum(res.Output))
	printLedger(w, pa.Snapshot())

	if tt.Enabled() {
		s := trace.Summarize(tt)
		_, _ = fmt.Fprintf(w, "trace: allocations=%d migrations=%d (%s) evictions=%d (%s) dropped=%s\n",
			s.TotalAllocations, s.Migrations, formatBytes(s.BytesMigrated), s.Evictions, formatBytes(s.BytesEvicted), formatBytes(s.BytesDropped))
	}

	if opts.Metrics {
		return writeMetrics(w, pa.Collector())
	}
	return nil
}

// writeMetrics gathers c through a private registry and writes the text
// exposition format.
func writeMetrics(w io.Writer, c prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("registering tier collector: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering tier metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func checksum(out []float32) float64 {
	var sum float64
	for _, x := range out {
		sum += float64(x)
	}
	return sum
}

func init() {
	for _, c := range []*cobra.Command{attendCmd, benchCmd} {
		c.Flags().StringVar(&mode, "mode", modeSliding, "Attention mode (sliding, block-sparse)")
		c.Flags().IntVar(&tokens, "tokens", 64, "Sequence length in tokens")
		c.Flags().IntVar(&dim, "dim", 16, "Features per token")
		c.Flags().IntVar(&window, "window", 8, "Sliding window in tokens")
		c.Flags().IntVar(&blockSize, "block-size", 8, "Tokens per block (block-sparse)")
		c.Flags().IntVar(&blockWindow, "block-window", 2, "Blocks of context per block (block-sparse)")
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for input generation")
	}
	attendCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Tier decision trace level (none, decisions)")
	attendCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print the tier ledger in Prometheus text format")
}
