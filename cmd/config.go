package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/tiered-attention/memtier"
)

// Config is the --config file. Every section must be listed to satisfy
// KnownFields(true) strict parsing.
type Config struct {
	Tiers     TierConfig      `yaml:"tiers"`
	Attention AttentionConfig `yaml:"attention"`
}

// TierConfig overrides the detected capabilities. Unset fields keep the
// detected value.
type TierConfig struct {
	HasFast     *bool  `yaml:"has_fast"`
	HasSlow     *bool  `yaml:"has_slow"`
	FastBytes   *int64 `yaml:"fast_bytes"`
	MediumBytes *int64 `yaml:"medium_bytes"`
	SlowBytes   *int64 `yaml:"slow_bytes"`
}

// AttentionConfig supplies defaults for attend and bench. Zero values fall
// back to the flag defaults.
type AttentionConfig struct {
	Mode        string `yaml:"mode"`
	Tokens      int    `yaml:"tokens"`
	Dim         int    `yaml:"dim"`
	Window      int    `yaml:"window"`
	BlockSize   int    `yaml:"block_size"`
	BlockWindow int    `yaml:"block_window"`
}

// loadConfig parses path with strict field checking. An empty path yields
// the zero Config.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for name, v := range map[string]*int64{
		"fast_bytes":   cfg.Tiers.FastBytes,
		"medium_bytes": cfg.Tiers.MediumBytes,
		"slow_bytes":   cfg.Tiers.SlowBytes,
	} {
		if v != nil && *v < 0 {
			return cfg, fmt.Errorf("config %s: tiers.%s must be >= 0, got %d", path, name, *v)
		}
	}
	return cfg, nil
}

// apply layers the tier overrides over caps.
func (tc TierConfig) apply(caps memtier.Capabilities) memtier.Capabilities {
	if tc.HasFast != nil {
		caps.HasFast = *tc.HasFast
	}
	if tc.HasSlow != nil {
		caps.HasSlow = *tc.HasSlow
	}
	if tc.FastBytes != nil {
		caps.FastCapacity = *tc.FastBytes
	}
	if tc.MediumBytes != nil {
		caps.MediumCapacity = *tc.MediumBytes
	}
	if tc.SlowBytes != nil {
		caps.SlowCapacity = *tc.SlowBytes
	}
	return caps
}

// resolveCapabilities detects capabilities from the environment and applies
// the config file's overrides.
func resolveCapabilities(cfg Config) memtier.Capabilities {
	return cfg.Tiers.apply(memtier.Detect())
}
