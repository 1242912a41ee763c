package core

import "fmt"

// StepLimiter enforces a maximum number of decision loop steps per turn.
// It belongs to a single turn and is not safe for concurrent use.
type StepLimiter struct {
	max   int
	count int
}

// NewStepLimiter creates a new limiter with a max number of steps.
// If max == 0, unlimited steps are allowed.
func NewStepLimiter(max int) *StepLimiter {
	return &StepLimiter{max: max}
}

// Increment increases the step counter and returns ErrLoopBoundExceeded once
// the limit is passed.
func (sl *StepLimiter) Increment() error {
	sl.count++
	if sl.max > 0 && sl.count > sl.max {
		return fmt.Errorf("%w: max %d steps", ErrLoopBoundExceeded, sl.max)
	}

	return nil
}

// Count returns the current number of steps taken.
func (sl *StepLimiter) Count() int { return sl.count }
