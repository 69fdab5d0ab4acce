package bootstrap

// State is a step of the bootstrap sequence.
type State int32

const (
	StateUnstarted State = iota
	StateEnvironmentResolved
	StateSourcesRead
	StateMerged
	StateValidated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "UNSTARTED"
	case StateEnvironmentResolved:
		return "ENVIRONMENT_RESOLVED"
	case StateSourcesRead:
		return "SOURCES_READ"
	case StateMerged:
		return "MERGED"
	case StateValidated:
		return "VALIDATED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateValidated || s == StateFailed
}
