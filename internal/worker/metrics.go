package worker

import "github.com/VictoriaMetrics/metrics"

// Process-wide delivery counters, exported on the optional metrics listener.
var (
	claimedTotal = metrics.NewCounter(`herald_alerts_claimed_total`)
	sentTotal    = metrics.NewCounter(`herald_alerts_sent_total`)
	failedTotal  = metrics.NewCounter(`herald_alerts_failed_total`)
	batchesTotal = metrics.NewCounter(`herald_claim_batches_total`)
)
