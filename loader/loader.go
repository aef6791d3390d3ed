// Package loader places model weights through a tiered memory manager.
//
// Weights charged to the slow tier are memory mapped read-only where the
// platform supports it; everything else is read into memory up front.
package loader

import (
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/tiered-attention/memtier"
)

// Allocator decides which tier holds a buffer of the given size.
// *memtier.Manager satisfies it.
type Allocator interface {
	Allocate(bytes int64) memtier.Tier
}

// Model is a loaded set of weights.
type Model struct {
	Config ModelConfig
	Tier   memtier.Tier
	Data   []byte
	Mapped bool // Data is a read-only mapping released by Close
}

// Load reads the model config at configPath, charges the weight file's size
// to alloc and loads the weights according to the returned tier.
//
// The charge is not returned if reading the weights fails afterwards; the
// ledger has no release operation.
func Load(configPath string, alloc Allocator) (*Model, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cfg.WeightPath)
	if err != nil {
		return nil, fmt.Errorf("model %q: stat weights: %w", cfg.Name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("model %q: weight path %s is a directory", cfg.Name, cfg.WeightPath)
	}

	size := info.Size()
	m := &Model{Config: cfg, Tier: alloc.Allocate(size)}

	// An empty file has nothing to map.
	if m.Tier == memtier.Slow && canMap && size > 0 {
		length, err := mapLength(size, math.MaxInt)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", cfg.Name, err)
		}
		data, err := mapFile(cfg.WeightPath, length)
		if err != nil {
			return nil, fmt.Errorf("model %q: mapping weights: %w", cfg.Name, err)
		}
		m.Data, m.Mapped = data, true
	} else {
		data, err := os.ReadFile(cfg.WeightPath)
		if err != nil {
			return nil, fmt.Errorf("model %q: reading weights: %w", cfg.Name, err)
		}
		m.Data = data
	}

	logrus.WithFields(logrus.Fields{
		"model":        cfg.Name,
		"bytes":        size,
		"tier":         m.Tier,
		"mapped":       m.Mapped,
		"quantization": cfg.Quantization,
	}).Debug("loader: weights loaded")
	return m, nil
}

// mapLength converts a file size to a mapping length, refusing sizes the
// platform's int cannot address.
func mapLength(size, maxLen int64) (int, error) {
	if size > maxLen {
		return 0, fmt.Errorf("weights of %d bytes exceed the addressable mapping size %d", size, maxLen)
	}
	return int(size), nil
}

// Close releases a mapping. It is safe to call more than once.
func (m *Model) Close() error {
	if !m.Mapped {
		m.Data = nil
		return nil
	}
	data := m.Data
	m.Data, m.Mapped = nil, false
	if err := unmap(data); err != nil {
		return fmt.Errorf("model %q: unmapping weights: %w", m.Config.Name, err)
	}
	return nil
}
