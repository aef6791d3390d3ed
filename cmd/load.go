package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tiered-attention/loader"
	"github.com/inference-sim/tiered-attention/memtier"
)

var loadCmd = &cobra.Command{
	Use:   "load <model-config>",
	Short: "Place a model's weights through the tiered memory manager",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runLoad(cmd.OutOrStdout(), resolveCapabilities(cfg), args[0]); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func runLoad(w io.Writer, caps memtier.Capabilities, modelConfig string) error {
	mgr := memtier.New(caps)
	m, err := loader.Load(modelConfig, mgr)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logrus.Warnf("%v", err)
		}
	}()

	quant := string(m.Config.Quantization)
	if quant == "" {
		quant = "none"
	}
	_, _ = fmt.Fprintf(w, "model=%s weights=%s size=%s quantization=%s\n", m.Config.Name, m.Config.WeightPath, formatBytes(int64(len(m.Data))), quant)
	_, _ = fmt.Fprintf(w, "tier=%s mapped=%t\n", m.Tier, m.Mapped)
	printLedger(w, mgr.Snapshot())
	return nil
}
