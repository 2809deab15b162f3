// Package debounce suppresses repeated reports of a code that stays in view.
//
// A Tracker remembers the last reported payload and when it was reported.
// Identical payloads inside the window are suppressed; once the window lapses
// the payload is reportable again even if it never left the frame.
package debounce

import "time"

// DefaultWindow is the default debounce window.
const DefaultWindow = 500 * time.Millisecond

// Tracker holds DebounceState for one engine.
// Not safe for concurrent use; the owning engine serializes access.
type Tracker struct {
	windowMillis int64

	lastPayload          string // empty = none
	lastReportedAtMillis int64
}

// New creates a Tracker. A non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{windowMillis: window.Milliseconds()}
}

// Window returns the debounce window.
func (t *Tracker) Window() time.Duration {
	return time.Duration(t.windowMillis) * time.Millisecond
}

// ShouldSuppress reports whether payload was already reported within the window.
func (t *Tracker) ShouldSuppress(payload string, nowMillis int64) bool {
	if t.lastPayload == "" || payload != t.lastPayload {
		return false
	}
	return nowMillis-t.lastReportedAtMillis < t.windowMillis
}

// Record marks payload as reported at nowMillis.
func (t *Tracker) Record(payload string, nowMillis int64) {
	t.lastPayload = payload
	t.lastReportedAtMillis = nowMillis
}

// Clear resets the tracker to the no-prior-payload state.
func (t *Tracker) Clear() {
	t.lastPayload = ""
	t.lastReportedAtMillis = 0
}

// Last returns the last recorded payload and its report time.
// ok is false when nothing is recorded.
func (t *Tracker) Last() (payload string, reportedAtMillis int64, ok bool) {
	if t.lastPayload == "" {
		return "", 0, false
	}
	return t.lastPayload, t.lastReportedAtMillis, true
}
