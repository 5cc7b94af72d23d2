package model

// Power states reported by the vehicle. Only Ready and Sleep drive scheduling.
const (
	PowerStateReady   = "ready"
	PowerStateGo      = "go"
	PowerStateSleep   = "sleep"
	PowerStateStandby = "standby"
)

// FieldSetTier selects how many signals a vehicle state query requests.
type FieldSetTier int

const (
	// TierMinimal requests only the signals used by the poll loop.
	TierMinimal FieldSetTier = iota
	// TierFull requests every known signal.
	TierFull
)

// String returns a human-readable name for the tier.
func (t FieldSetTier) String() string {
	switch t {
	case TierMinimal:
		return "minimal"
	case TierFull:
		return "full"
	default:
		return "unknown"
	}
}
