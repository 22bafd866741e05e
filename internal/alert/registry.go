package alert

import (
	"fmt"
	"time"
)

// TypeConfig holds the static delivery rules for one alert kind.
type TypeConfig struct {
	Kind            Kind
	DefaultPriority Priority
	DedupWindow     time.Duration
	BatchAllowed    bool
	MaxPerBatch     int
}

var typeConfigs = map[Kind]TypeConfig{
	KindPriceChange: {
		Kind:            KindPriceChange,
		DefaultPriority: PriorityMedium, // overridden by magnitude for producer convenience calls
		DedupWindow:     time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     10,
	},
	KindBullishCrossover: {
		Kind:            KindBullishCrossover,
		DefaultPriority: PriorityHigh,
		DedupWindow:     24 * time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     5,
	},
	KindBearishCrossover: {
		Kind:            KindBearishCrossover,
		DefaultPriority: PriorityHigh,
		DedupWindow:     24 * time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     5,
	},
	KindRecommendationChange: {
		Kind:            KindRecommendationChange,
		DefaultPriority: PriorityMedium,
		DedupWindow:     24 * time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     10,
	},
	KindVolumeSpike: {
		Kind:            KindVolumeSpike,
		DefaultPriority: PriorityMedium,
		DedupWindow:     4 * time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     10,
	},
	KindNewHigh52W: {
		Kind:            KindNewHigh52W,
		DefaultPriority: PriorityHigh,
		DedupWindow:     24 * time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     10,
	},
	KindNewLow52W: {
		Kind:            KindNewLow52W,
		DefaultPriority: PriorityHigh,
		DedupWindow:     24 * time.Hour,
		BatchAllowed:    true,
		MaxPerBatch:     10,
	},
	KindEarnings: {
		Kind:            KindEarnings,
		DefaultPriority: PriorityHigh,
		DedupWindow:     168 * time.Hour,
		BatchAllowed:    false,
		MaxPerBatch:     1,
	},
	KindDailySummary: {
		Kind:            KindDailySummary,
		DefaultPriority: PriorityLow,
		DedupWindow:     24 * time.Hour,
		BatchAllowed:    false,
		MaxPerBatch:     1,
	},
}

// ConfigFor returns the delivery configuration for a kind. Every kind the
// system uses must resolve; an unknown kind is a programming error, so this
// panics rather than degrading to a fallback config. Callers accepting
// external input validate with ParseKind or KnownKind first.
func ConfigFor(kind Kind) TypeConfig {
	cfg, ok := typeConfigs[kind]
	if !ok {
		panic(fmt.Sprintf("alert: unknown kind %q", kind))
	}
	return cfg
}
