package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Quantization names the on-disk weight format. It is recorded, never
// interpreted.
type Quantization string

const (
	QuantizationNone Quantization = ""
	QuantizationInt4 Quantization = "int4"
	QuantizationInt8 Quantization = "int8"
	QuantizationBF16 Quantization = "bf16"
)

var validQuantizations = map[Quantization]bool{
	QuantizationNone: true,
	QuantizationInt4: true,
	QuantizationInt8: true,
	QuantizationBF16: true,
}

// IsValid reports whether q is a recognized quantization.
func (q Quantization) IsValid() bool {
	return validQuantizations[q]
}

// ModelConfig describes where a model's weights live.
type ModelConfig struct {
	Name         string       `yaml:"name"`
	WeightPath   string       `yaml:"weight_path"`
	Quantization Quantization `yaml:"quantization"`
}

// LoadConfig reads a model config with strict field checking. JSON configs
// parse as well since YAML is a superset. A relative weight_path is resolved
// against the directory holding the config.
func LoadConfig(path string) (ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("reading model config: %w", err)
	}

	var cfg ModelConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return ModelConfig{}, fmt.Errorf("parsing model config %s: %w", path, err)
	}

	if cfg.Name == "" {
		return ModelConfig{}, fmt.Errorf("model config %s: name is required", path)
	}
	if cfg.WeightPath == "" {
		return ModelConfig{}, fmt.Errorf("model config %s: weight_path is required", path)
	}
	if !cfg.Quantization.IsValid() {
		return ModelConfig{}, fmt.Errorf("model config %s: unknown quantization %q (valid: int4, int8, bf16)", path, cfg.Quantization)
	}
	if !filepath.IsAbs(cfg.WeightPath) {
		cfg.WeightPath = filepath.Join(filepath.Dir(path), cfg.WeightPath)
	}
	return cfg, nil
}
