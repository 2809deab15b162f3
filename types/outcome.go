package types

// OutcomeKind discriminates a ScanOutcome.
type OutcomeKind int

const (
	// OutcomeNotFound means no code was located in the frame.
	// This is the steady state for live video and is never an error.
	OutcomeNotFound OutcomeKind = iota
	// OutcomeDecoded means a code was located and decoded.
	OutcomeDecoded
	// OutcomeFault means the backend failed on this frame.
	OutcomeFault
)

// String returns a short label for logs and metrics.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeDecoded:
		return "decoded"
	case OutcomeFault:
		return "fault"
	default:
		return "unknown"
	}
}

// ScanOutcome is the result of exactly one decode attempt.
// Payload and Symbology are set only for OutcomeDecoded; Err only for OutcomeFault.
type ScanOutcome struct {
	Kind      OutcomeKind
	Payload   string
	Symbology Symbology
	Err       error
}

// Decoded builds a successful outcome.
func Decoded(payload string, symbology Symbology) ScanOutcome {
	return ScanOutcome{Kind: OutcomeDecoded, Payload: payload, Symbology: symbology}
}

// NotFound builds an expected-miss outcome.
func NotFound() ScanOutcome {
	return ScanOutcome{Kind: OutcomeNotFound}
}

// Fault builds a backend-fault outcome.
func Fault(err error) ScanOutcome {
	return ScanOutcome{Kind: OutcomeFault, Err: err}
}
