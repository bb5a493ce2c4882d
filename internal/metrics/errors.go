package metrics

import (
	"errors"
	"fmt"
)

// ErrNoSource is reported when a Collector has no timing source.
var ErrNoSource = errors.New("timing source unavailable")

// CollectionError describes a failure to read timing samples. It is folded
// into Record.Error and never returned to callers of the Collector.
type CollectionError struct {
	Stage string
	Err   error
}

func (e *CollectionError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("collect metrics: %v", e.Err)
	}
	return fmt.Sprintf("collect metrics (%s): %v", e.Stage, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }
