package execution

// State is a step of one submission. Every Submit call starts and ends in
// Idle.
type State int

const (
	Idle State = iota
	Validating
	Rejected
	Submitting
	Submitted
	ServerRejected
	SessionExpired
	TransportFailure
)

var stateNames = [...]string{
	Idle:             "idle",
	Validating:       "validating",
	Rejected:         "rejected",
	Submitting:       "submitting",
	Submitted:        "submitted",
	ServerRejected:   "server_rejected",
	SessionExpired:   "session_expired",
	TransportFailure: "transport_failure",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a submission attempt.
func (s State) Terminal() bool {
	switch s {
	case Rejected, Submitted, ServerRejected, SessionExpired, TransportFailure:
		return true
	}
	return false
}
