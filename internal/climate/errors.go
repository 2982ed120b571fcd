package climate

import (
	"errors"
)

var (
	// ErrUnknownZone indicates the referenced zone does not exist. The operation is rejected; it should not be retried.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrZoneBusy indicates the zone's critical section could not be acquired in time. The operation may be retried.
	ErrZoneBusy = errors.New("zone is busy")
	// ErrInvalidBand indicates a schedule edit violates a schedule invariant. The edit is rejected in full.
	ErrInvalidBand = &bandError{}
)

type bandError struct {
	reason string
}

func (e *bandError) Error() string {
	reason := "unknown reason"
	if e.reason != "" {
		reason = e.reason
	}
	return "invalid schedule band: " + reason
}

func (e *bandError) Is(err error) bool {
	return err == ErrInvalidBand
}
