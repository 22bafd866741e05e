package alert

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// fingerprintLen is the number of hex characters retained from the digest.
// 16 chars (64 bits) is plenty for a bounded symbol universe compared within
// a time-boxed dedup window.
const fingerprintLen = 16

// Fingerprint derives the deduplication hash for an alert. Two alerts with
// the same fingerprint inside the kind's dedup window are the same logical
// alert and only one may reach the notifier.
//
// The context component varies by kind:
//   - price_change: the caller-supplied coarse time bucket (for example
//     "2026-02-01-14"), allowing repeat alerts per day but not per bucket.
//   - crossovers and daily_summary: the current UTC calendar date, at most
//     one per subject per day regardless of caller context.
//   - recommendation_change: the new recommendation, so a different
//     transition on the same day is not a duplicate while a repeat of the
//     same transition is.
//   - everything else: the caller context verbatim, or nothing.
//
// The function is pure; now is a parameter so date-based rules are testable.
func Fingerprint(kind Kind, symbol, context string, now time.Time) string {
	components := []string{string(kind), strings.ToUpper(symbol)}

	switch kind {
	case KindPriceChange:
		components = append(components, context)
	case KindBullishCrossover, KindBearishCrossover, KindDailySummary:
		components = append(components, now.UTC().Format("2006-01-02"))
	case KindRecommendationChange:
		components = append(components, context)
	default:
		if context != "" {
			components = append(components, context)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// HourBucket formats a timestamp as the coarse dedup bucket used by
// price-change producers.
func HourBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02-15")
}
