package types

// LifecycleState is the state of a scanning engine.
type LifecycleState int

const (
	// StateIdle is the initial and terminal state. No loop is running.
	StateIdle LifecycleState = iota
	// StateRunning means exactly one decode loop is active.
	StateRunning
	// StateStopping is held while a running loop is being torn down.
	StateStopping
)

func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
