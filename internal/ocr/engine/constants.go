package engine

const (
	// HighCPUThreshold routes selection to the fast path when the sampled
	// process CPU exceeds it.
	HighCPUThreshold = 70.0

	// FastPathThreshold is the average extraction time in seconds under
	// which the primary engine is considered affordable.
	FastPathThreshold = 1.0

	// Deadline scale factors per engine. The effective per-call deadline
	// is the controller deadline multiplied by the selected engine's scale.
	PrimaryDeadlineScale     = 1.0
	FastDeadlineScale        = 0.8
	SpecializedDeadlineScale = 0.6

	// MinTextLength drops specialized-engine results shorter than this
	// many characters after trimming.
	MinTextLength = 3
)
