package session

// State is the observable phase of one guidance session. Transitions are
// driven solely by the dispatcher goroutine, so observers never see a torn
// intermediate.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateAsking
	StateAwaitingAck
	StateSuccess
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateAsking:
		return "asking"
	case StateAwaitingAck:
		return "awaiting-ack"
	case StateSuccess:
		return "success"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further rounds can run.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateClosed || s == StateErrored
}
