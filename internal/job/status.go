package job

// Status is the lifecycle state of a job. Queued and Running are transient;
// the remaining states are terminal.
type Status int

const (
	Queued Status = iota
	Running
	Succeeded
	Failed
	TimedOut
	Cancelled
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	switch s {
	case Succeeded, Failed, TimedOut, Cancelled:
		return true
	}
	return false
}
