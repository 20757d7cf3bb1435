package pipeline

// State is the position of an activation attempt in the pipeline
type State int

// States in the order a successful attempt passes through them.
// StateFailed is reachable from every non-terminal state.
const (
	StateStart State = iota
	StateCertificateChecked
	StateAppRefreshed
	StateAssembled
	StateValidated
	StateCommitted
	StateReloaded
	StateFailed
)

var stateNames = [...]string{
	StateStart:              "start",
	StateCertificateChecked: "certificate_checked",
	StateAppRefreshed:       "app_refreshed",
	StateAssembled:          "assembled",
	StateValidated:          "validated",
	StateCommitted:          "committed",
	StateReloaded:           "reloaded",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateReloaded || s == StateFailed
}
