package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tiered-attention/memtier"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the tier capabilities detected from the environment",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		runDetect(cmd.OutOrStdout(), resolveCapabilities(cfg))
	},
}

func runDetect(w io.Writer, caps memtier.Capabilities) {
	for _, t := range memtier.Tiers() {
		_, _ = fmt.Fprintf(w, "%-8s available=%-4s capacity=%s\n", t, availability(caps.Has(t)), formatBytes(caps.Capacity(t)))
	}
}
