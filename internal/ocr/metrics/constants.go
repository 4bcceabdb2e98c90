// Package metrics tracks rolling extraction performance statistics
package metrics

import "time"

// EWMA weights. The asymmetry (flat +5 reward on success,
// multiplicative-only decay on failure) biases the success rate toward
// conservatism.
const (
	SuccessRateDecay  = 0.95
	SuccessRateReward = 100 * (1 - SuccessRateDecay)
	ProcessTimeDecay  = 0.9
)

// Process sampling cadence, independent of the extraction cadence.
const SampleInterval = time.Second

// Advisory thresholds.
const (
	AdvisoryCPUPercent  = 80.0
	AdvisoryMemoryMB    = 500.0
	AdvisorySuccessRate = 60.0
	AdvisoryProcessTime = 3.0 // seconds
	AdvisoryErrorCount  = 10
)
