package trajectory

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSampleCount matches any InvalidSampleCountError.
var ErrInvalidSampleCount = errors.New("invalid sample count")

// InvalidSampleCountError reports a request that cannot produce a
// trajectory: no steps, more steps than Max, or an empty or reversed time
// span.
type InvalidSampleCountError struct {
	Steps int
	Span  time.Duration
	Max   int
}

func (e *InvalidSampleCountError) Error() string {
	if e.Steps <= 0 {
		return fmt.Sprintf("invalid sample count %d: need at least one step", e.Steps)
	}
	if e.Max > 0 && e.Steps > e.Max {
		return fmt.Sprintf("invalid sample count %d: at most %d steps", e.Steps, e.Max)
	}
	return fmt.Sprintf("invalid sample span %s for %d steps", e.Span, e.Steps)
}

// Is makes errors.Is(err, ErrInvalidSampleCount) succeed.
func (e *InvalidSampleCountError) Is(target error) bool {
	return target == ErrInvalidSampleCount
}
