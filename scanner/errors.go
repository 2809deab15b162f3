package scanner

import (
	"errors"
	"fmt"
)

// Fault operations.
const (
	// OpDecode marks a backend failure on a frame.
	OpDecode = "decode"
	// OpFrame marks a frame that could not be read from the source.
	OpFrame = "frame"
)

// ErrEngineClosed is returned by control calls after Close.
var ErrEngineClosed = errors.New("scanner: engine closed")

// FaultError is a transient failure delivered to Callbacks.OnError.
// The decode loop keeps running after reporting one.
type FaultError struct {
	// Op is OpDecode or OpFrame.
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("scanner %s fault: %v", e.Op, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// AsFault returns the FaultError in err's chain, if any.
func AsFault(err error) (*FaultError, bool) {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
