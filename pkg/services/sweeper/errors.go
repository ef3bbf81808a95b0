package sweeper

import (
	"errors"
	"fmt"
)

// SweepIncompleteError is returned when at least one snapshot could not be
// deleted. The schedule that invoked the sweep should alert or retry.
type SweepIncompleteError struct {
	Count int
}

func (e *SweepIncompleteError) Error() string {
	return fmt.Sprintf("snapshots pending delete: %d", e.Count)
}

// PendingDeletes returns the failure count carried by err, or 0.
func PendingDeletes(err error) int {
	var incomplete *SweepIncompleteError
	if errors.As(err, &incomplete) {
		return incomplete.Count
	}
	return 0
}
