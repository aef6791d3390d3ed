package memtier

import "fmt"

// Tier identifies one level of the memory hierarchy.
type Tier int

const (
	// Fast is accelerator-resident memory.
	Fast Tier = iota
	// Medium is host-resident memory. It always exists.
	Medium
	// Slow is block-storage-backed memory.
	Slow
)

const numTiers = 3

// tierOrder lists tiers from most to least preferred. Eviction always moves
// charge toward the end of this table; the last entry never evicts.
var tierOrder = [numTiers]Tier{Fast, Medium, Slow}

var tierNames = [numTiers]string{
	Fast:   "fast",
	Medium: "medium",
	Slow:   "slow",
}

// Tiers returns all tiers in preference order.
func Tiers() []Tier {
	out := make([]Tier, numTiers)
	copy(out, tierOrder[:])
	return out
}

func (t Tier) String() string {
	if !t.valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

func (t Tier) valid() bool {
	return t >= 0 && int(t) < numTiers
}

// ParseTier is the inverse of Tier.String.
func ParseTier(s string) (Tier, error) {
	for _, t := range tierOrder {
		if tierNames[t] == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown memory tier %q (valid: fast, medium, slow)", s)
}

// rank returns the position of t in tierOrder.
func rank(t Tier) int {
	for i, o := range tierOrder {
		if o == t {
			return i
		}
	}
	return -1
}
