// Package webrtc connects the client to the remote host with pion.
package webrtc

import (
	"fmt"
	"strings"

	"github.com/frudas24/deskpilot/internal/session"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

// ICEConfig lists the STUN/TURN servers offered to every peer.
type ICEConfig struct {
	URLs       []string
	Username   string
	Credential string
}

// servers splits URLs into one STUN entry and one credentialed TURN entry.
func (c ICEConfig) servers() []webrtc.ICEServer {
	var stun, turn []string
	for _, u := range c.URLs {
		u = strings.TrimSpace(u)
		switch {
		case u == "":
		case strings.HasPrefix(u, "turn:"), strings.HasPrefix(u, "turns:"):
			turn = append(turn, u)
		default:
			stun = append(stun, u)
		}
	}
	var out []webrtc.ICEServer
	if len(stun) > 0 {
		out = append(out, webrtc.ICEServer{URLs: stun})
	}
	if len(turn) > 0 {
		out = append(out, webrtc.ICEServer{
			URLs:       turn,
			Username:   c.Username,
			Credential: c.Credential,
		})
	}
	return out
}

// Factory builds answering peers sharing one media engine.
type Factory struct {
	api       *webrtc.API
	config    webrtc.Configuration
	forwarder *Forwarder
}

// NewFactory initializes the pion API with default codecs/interceptors.
func NewFactory(ice ICEConfig, fwd *Forwarder) (*Factory, error) {
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, interceptors); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(interceptors),
	)

	return &Factory{
		api: api,
		config: webrtc.Configuration{
			ICEServers:         ice.servers(),
			ICETransportPolicy: webrtc.ICETransportPolicyAll,
		},
		forwarder: fwd,
	}, nil
}

// NewPeer creates a peer connection reporting to ev.
func (f *Factory) NewPeer(ev session.PeerEvents) (session.Peer, error) {
	pc, err := f.api.NewPeerConnection(f.config)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if ev.OnICEState != nil {
			ev.OnICEState(state.String())
		}
	})
	pc.OnSignalingStateChange(func(state webrtc.SignalingState) {
		log.Debug().Str("signaling_state", state.String()).Msg("peer signaling state")
	})
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || ev.OnCandidate == nil {
			return
		}
		init := c.ToJSON()
		mid := ""
		if init.SDPMid != nil {
			mid = *init.SDPMid
		}
		ev.OnCandidate(init.Candidate, mid)
	})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		ch := &DataChannel{dc: dc}
		dc.OnOpen(func() {
			if ev.OnChannel != nil {
				ev.OnChannel(ch)
			}
		})
		dc.OnClose(func() {
			if ev.OnChannelClose != nil {
				ev.OnChannelClose()
			}
		})
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if debugRTPEnabled() {
				log.Debug().Str("label", dc.Label()).Int("bytes", len(msg.Data)).Msg("data channel message")
			}
		})
	})
	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		go drainRTCP(receiver)
		if track.Kind() != webrtc.RTPCodecTypeVideo {
			log.Info().Str("kind", track.Kind().String()).Str("track_id", track.ID()).Msg("remote track")
			go drainTrack(track)
			return
		}
		rt := &RemoteTrack{track: track}
		if ev.OnTrack != nil {
			ev.OnTrack(rt)
		}
		if f.forwarder != nil {
			go f.forwarder.Run(rt)
			return
		}
		go drainTrack(track)
	})

	return &Peer{pc: pc}, nil
}

// drainRTCP reads receiver reports so interceptors keep running.
func drainRTCP(receiver *webrtc.RTPReceiver) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := receiver.Read(buf); err != nil {
			return
		}
	}
}

// drainTrack discards media nobody renders.
func drainTrack(track *webrtc.TrackRemote) {
	buf := make([]byte, 1600)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

// Peer is an answering peer connection.
type Peer struct {
	pc *webrtc.PeerConnection
}

// SetRemoteOffer applies the host's offer.
func (p *Peer) SetRemoteOffer(sdp string) error {
	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

// CreateAnswer sets the local answer. The returned channel closes when ICE
// gathering is complete.
func (p *Peer) CreateAnswer() (<-chan struct{}, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return gathered, nil
}

// LocalSDP returns the current local description.
func (p *Peer) LocalSDP() string {
	if desc := p.pc.LocalDescription(); desc != nil {
		return desc.SDP
	}
	return ""
}

// AddCandidate applies a remote ICE candidate.
func (p *Peer) AddCandidate(candidate, mid string) error {
	init := webrtc.ICECandidateInit{Candidate: candidate}
	if mid != "" {
		init.SDPMid = &mid
	}
	return p.pc.AddICECandidate(init)
}

// Close closes the peer connection and every track it carries.
func (p *Peer) Close() error {
	return p.pc.Close()
}
