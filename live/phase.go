package live

// Phase is the connection lifecycle state of a Session.
type Phase int32

const (
	// PhaseIdle is the initial state before any connect attempt.
	PhaseIdle Phase = iota
	// PhaseConnecting means a transport dial is in progress.
	PhaseConnecting
	// PhaseOpen means the transport is open and the setup handshake is pending.
	PhaseOpen
	// PhaseReady means the setup handshake completed; sends are permitted.
	PhaseReady
	// PhaseClosing means a disconnect is in progress.
	PhaseClosing
	// PhaseClosed means the transport is gone; the session may reconnect.
	PhaseClosed
	// PhaseFailed is terminal for the current attempt, reached on a
	// transport or handshake failure.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseOpen:
		return "open"
	case PhaseReady:
		return "ready"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether the phase admits no further transitions within
// the current connect attempt.
func (p Phase) terminal() bool {
	return p == PhaseClosed || p == PhaseFailed
}
