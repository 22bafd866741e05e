package alert

import "strings"

// Kind identifies a category of alert with its own delivery rules.
type Kind string

const (
	KindPriceChange          Kind = "price_change"
	KindBullishCrossover     Kind = "bullish_crossover"
	KindBearishCrossover     Kind = "bearish_crossover"
	KindRecommendationChange Kind = "recommendation_change"
	KindVolumeSpike          Kind = "volume_spike"
	KindNewHigh52W           Kind = "new_high_52w"
	KindNewLow52W            Kind = "new_low_52w"
	KindEarnings             Kind = "earnings_announcement"
	KindDailySummary         Kind = "daily_summary"
)

var allKinds = []Kind{
	KindPriceChange,
	KindBullishCrossover,
	KindBearishCrossover,
	KindRecommendationChange,
	KindVolumeSpike,
	KindNewHigh52W,
	KindNewLow52W,
	KindEarnings,
	KindDailySummary,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// AllKinds returns the ordered list of known alert kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// KnownKind reports whether a kind is part of the registry.
func KnownKind(kind Kind) bool {
	_, ok := kindSet[kind]
	return ok
}

// Priority orders delivery; a lower ordinal is more urgent.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// PriorityUnset marks a caller-omitted priority so Enqueue falls back to the
// kind's default (or magnitude classification).
const PriorityUnset Priority = 0

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unset"
	}
}

// Valid reports whether the priority is one of the four delivery tiers.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityLow
}

// ParsePriority converts a tier name into a Priority.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return PriorityCritical, true
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	default:
		return PriorityUnset, false
	}
}
