package memtier

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment variables read by Detect.
const (
	EnvHasFastTier     = "HAS_FAST_TIER"
	EnvHasSlowTier     = "HAS_SLOW_TIER"
	EnvFastTierBytes   = "FAST_TIER_BYTES"
	EnvMediumTierBytes = "MEDIUM_TIER_BYTES"
	EnvSlowTierBytes   = "SLOW_TIER_BYTES"
)

// Unbounded is the capacity of a tier with no byte ceiling.
const Unbounded int64 = math.MaxInt64

// Default capacities used when the environment does not provide one.
const (
	DefaultFastCapacity   int64 = 1024
	DefaultMediumCapacity int64 = 8192
	DefaultSlowCapacity         = Unbounded
)

// Capabilities records which tiers exist and how many bytes each can hold.
// It is a plain value; copies never change underneath a Manager.
type Capabilities struct {
	HasFast        bool  // accelerator memory present
	HasSlow        bool  // block storage present
	FastCapacity   int64 // bytes
	MediumCapacity int64 // bytes
	SlowCapacity   int64 // bytes, Unbounded by default
}

// DefaultCapabilities returns a host-only system with default capacities.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		FastCapacity:   DefaultFastCapacity,
		MediumCapacity: DefaultMediumCapacity,
		SlowCapacity:   DefaultSlowCapacity,
	}
}

// Detect reads Capabilities from the process environment.
func Detect() Capabilities {
	return DetectFrom(os.LookupEnv)
}

// DetectFrom reads Capabilities through lookup. Unset or malformed values
// fall back to defaults; it never fails.
func DetectFrom(lookup func(string) (string, bool)) Capabilities {
	caps := DefaultCapabilities()
	caps.HasFast = envBool(lookup, EnvHasFastTier, false)
	caps.HasSlow = envBool(lookup, EnvHasSlowTier, false)
	caps.FastCapacity = envBytes(lookup, EnvFastTierBytes, caps.FastCapacity)
	caps.MediumCapacity = envBytes(lookup, EnvMediumTierBytes, caps.MediumCapacity)
	caps.SlowCapacity = envBytes(lookup, EnvSlowTierBytes, caps.SlowCapacity)
	return caps
}

// Has reports whether t is reachable at all. Medium always is.
func (c Capabilities) Has(t Tier) bool {
	switch t {
	case Fast:
		return c.HasFast
	case Medium:
		return true
	case Slow:
		return c.HasSlow
	}
	return false
}

// Capacity returns the configured byte capacity of t.
func (c Capabilities) Capacity(t Tier) int64 {
	switch t {
	case Fast:
		return c.FastCapacity
	case Medium:
		return c.MediumCapacity
	case Slow:
		return c.SlowCapacity
	}
	return 0
}

func envBool(lookup func(string) (string, bool), key string, def bool) bool {
	raw, ok := lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		logrus.Debugf("memtier: ignoring %s=%q: %v", key, raw, err)
		return def
	}
	return v
}

func envBytes(lookup func(string) (string, bool), key string, def int64) int64 {
	raw, ok := lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v < 0 {
		logrus.Debugf("memtier: ignoring %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}
