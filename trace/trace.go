package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every allocation, migration and eviction.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// TierTrace collects placement decision records for one memory manager.
// Like the manager it observes, it is not safe for concurrent use.
type TierTrace struct {
	Config      TraceConfig
	Allocations []AllocationRecord
	Movements   []MovementRecord
	seq         int64
}

// NewTierTrace creates a TierTrace ready for recording.
func NewTierTrace(config TraceConfig) *TierTrace {
	return &TierTrace{
		Config:      config,
		Allocations: make([]AllocationRecord, 0),
		Movements:   make([]MovementRecord, 0),
	}
}

// Enabled reports whether records are kept. Safe on a nil trace.
func (tt *TierTrace) Enabled() bool {
	return tt != nil && tt.Config.Level == TraceLevelDecisions
}

// RecordAllocation appends an allocation record, stamping its sequence number.
func (tt *TierTrace) RecordAllocation(record AllocationRecord) {
	if !tt.Enabled() {
		return
	}
	record.Seq = tt.next()
	tt.Allocations = append(tt.Allocations, record)
}

// RecordMovement appends a movement record, stamping its sequence number.
func (tt *TierTrace) RecordMovement(record MovementRecord) {
	if !tt.Enabled() {
		return
	}
	record.Seq = tt.next()
	tt.Movements = append(tt.Movements, record)
}

func (tt *TierTrace) next() int64 {
	tt.seq++
	return tt.seq
}
