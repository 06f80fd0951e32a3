package session

// State is the session lifecycle position.
type State int

const (
	// Disconnected has no remote session; the signaling link may still be open.
	Disconnected State = iota
	// LoggingIn waits for the login acknowledgment.
	LoggingIn
	// AwaitingOffer is logged in and waits for the host's offer.
	AwaitingOffer
	// Negotiating has applied an offer and waits for the transport.
	Negotiating
	// Connected has a live transport to the host.
	Connected
	// Closing is releasing the remote session before returning to Disconnected.
	Closing
)

// String returns the wire name of s.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case LoggingIn:
		return "logging_in"
	case AwaitingOffer:
		return "awaiting_offer"
	case Negotiating:
		return "negotiating"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
