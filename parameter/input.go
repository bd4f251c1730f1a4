package parameter

import "time"

// Input Buffering
const (
	// InputQueueCapacity holds ~1s of samples at 60 Hz, oldest evicted first
	InputQueueCapacity = 60

	// InputLatencyBudget is the base age allowance before RTT compensation
	InputLatencyBudget = 250 * time.Millisecond
)
