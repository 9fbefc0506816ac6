package merge

import (
	"fmt"
	"time"
)

// LoadFailure reports a merge attempt that was aborted. Nothing from the
// batch is committed when a LoadFailure is returned.
type LoadFailure struct {
	RunID   string
	Op      string
	Elapsed time.Duration
	Err     error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("merge: run %s: %s failed after %s: %v", e.RunID, e.Op, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}
