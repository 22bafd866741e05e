package alert

import "math"

// PriorityForChange classifies a percent price move into a delivery tier.
// Thresholds are on the absolute magnitude: >=10% critical, >=5% high,
// >=2% medium, anything smaller low. Only used when the producer does not
// supply an explicit priority.
func PriorityForChange(changePercent float64) Priority {
	abs := math.Abs(changePercent)
	switch {
	case abs >= 10.0:
		return PriorityCritical
	case abs >= 5.0:
		return PriorityHigh
	case abs >= 2.0:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
