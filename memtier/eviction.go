package memtier

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/tiered-attention/trace"
)

// ensureSpace makes room for n more bytes in t by pushing charge to the next
// slower available tier, cold bytes first and hot bytes as a fallback. The
// destination makes room recursively before accepting. The last tier of the
// order never evicts.
func (m *Manager) ensureSpace(t Tier, n int64) {
	st := &m.tiers[t]
	if n <= st.room() || rank(t) == numTiers-1 {
		return
	}
	deficit := n - st.room()

	if amount := min(deficit, st.cold); amount > 0 {
		m.evict(t, amount, amount, trace.MoveEvictCold)
		deficit -= amount
	}
	if amount := min(deficit, st.used); amount > 0 {
		m.evict(t, amount, 0, trace.MoveEvictHot)
	}
}

// evict removes amount bytes (cold of them flagged cold) from t and credits
// them to the next slower tier. Anything the destination cannot hold, or all
// of it when there is no destination, is dropped.
func (m *Manager) evict(t Tier, amount, cold int64, kind trace.MovementKind) {
	st := &m.tiers[t]
	st.used -= amount
	st.cold = min(st.cold-cold, st.used)
	m.evicted[t] = satAdd(m.evicted[t], amount)

	var moved int64
	dest, ok := m.slower(t)
	if ok {
		m.ensureSpace(dest, amount)
		moved = m.accept(dest, amount)
	}
	dropped := amount - moved
	if dropped > 0 {
		m.discard(t, dropped, string(kind))
	}

	to := ""
	if ok {
		to = dest.String()
	}
	logrus.WithFields(logrus.Fields{
		"from":    t,
		"to":      to,
		"kind":    kind,
		"moved":   moved,
		"dropped": dropped,
	}).Debug("memtier: evicted")
	m.trace.RecordMovement(trace.MovementRecord{
		Kind:      kind,
		From:      t.String(),
		To:        to,
		Requested: amount,
		Moved:     moved,
		Dropped:   dropped,
	})
}

// slower returns the next available tier after t in the order. For Medium
// without block storage there is none, and evicted bytes are dropped.
func (m *Manager) slower(t Tier) (Tier, bool) {
	for i := rank(t) + 1; i < numTiers; i++ {
		if next := tierOrder[i]; m.available(next) {
			return next, true
		}
	}
	return 0, false
}
