package session

import (
	"github.com/frudas24/deskpilot/internal/display"
	"github.com/frudas24/deskpilot/internal/signaling"
	"github.com/frudas24/deskpilot/internal/transport"
)

// Signal is the signaling link as seen by the session.
type Signal interface {
	Send(msg signaling.Message) error
	IsOpen() bool
	Close() error
}

// Peer is one negotiated connection to the host.
type Peer interface {
	// SetRemoteOffer applies the host's offer.
	SetRemoteOffer(sdp string) error
	// CreateAnswer sets the local answer and returns a channel closed once
	// local candidate gathering has completed.
	CreateAnswer() (<-chan struct{}, error)
	// LocalSDP returns the local description, complete after gathering.
	LocalSDP() string
	AddCandidate(candidate, mid string) error
	Close() error
}

// PeerEvents are the callbacks a peer reports. The session wraps them so
// they run on its loop.
type PeerEvents struct {
	OnICEState     func(state string)
	OnCandidate    func(candidate, mid string)
	OnChannel      func(ch transport.Channel)
	OnChannelClose func()
	OnTrack        func(t display.Track)
}

// PeerFactory builds a peer reporting to ev.
type PeerFactory func(ev PeerEvents) (Peer, error)

// Input is the input side the session resets and routes display picks to.
type Input interface {
	Reset()
	EmitDisplaySelect(id float64) error
}
