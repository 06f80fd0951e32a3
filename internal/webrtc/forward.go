package webrtc

import (
	"fmt"
	"net"
	"sync"

	"github.com/frudas24/deskpilot/internal/display"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

const (
	// sinkPayloadType is the dynamic payload type external players see.
	sinkPayloadType = 96
	// sinkSSRC keeps one SSRC across display switches.
	sinkSSRC = 0x44504c54
)

// rtpSource is a remote video feed that yields RTP packets.
type rtpSource interface {
	display.Track
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// RemoteTrack wraps a pion remote video track.
type RemoteTrack struct {
	track *webrtc.TrackRemote
}

// ID returns the track id chosen by the host.
func (t *RemoteTrack) ID() string { return t.track.ID() }

// ReadRTP reads the next packet.
func (t *RemoteTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	return t.track.ReadRTP()
}

// Forwarder drains every remote video track and writes the active one to a
// local UDP sink as a single continuous RTP stream.
type Forwarder struct {
	displays *display.Registry

	mu      sync.Mutex
	conn    net.Conn
	rw      rtpRewriter
	params  rtpWriteParams
	onFirst func()
	seen    map[display.Track]bool
}

// NewForwarder returns a forwarder writing to sinkAddr. An empty address
// drains tracks without forwarding.
func NewForwarder(displays *display.Registry, sinkAddr string) (*Forwarder, error) {
	f := &Forwarder{
		displays: displays,
		params:   rtpWriteParams{payloadType: sinkPayloadType, ssrc: sinkSSRC},
		seen:     make(map[display.Track]bool),
	}
	if sinkAddr == "" {
		return f, nil
	}
	conn, err := net.Dial("udp", sinkAddr)
	if err != nil {
		return nil, fmt.Errorf("dial video sink %s: %w", sinkAddr, err)
	}
	f.conn = conn
	log.Info().Str("addr", sinkAddr).Msg("forwarding active display")
	return f, nil
}

// OnFirstPacket registers fn to run when a track's first active packet arrives.
func (f *Forwarder) OnFirstPacket(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onFirst = fn
}

// Run reads src until it ends. Packets from inactive tracks are discarded.
func (f *Forwarder) Run(src rtpSource) {
	for {
		pkt, attr, err := src.ReadRTP()
		if err != nil {
			log.Debug().Err(err).Str("track_id", src.ID()).Msg("track ended")
			f.forget(src)
			return
		}
		if debugRTPEnabled() {
			log.Debug().
				Str("track_id", src.ID()).
				Uint16("seq", pkt.SequenceNumber).
				Uint32("ts", pkt.Timestamp).
				Int("attrs", len(attr)).
				Msg("rtp packet")
		}
		if !f.displays.IsActive(src) {
			continue
		}
		f.write(src, pkt)
	}
}

// write rewrites pkt onto the output stream and sends it to the sink.
func (f *Forwarder) write(src rtpSource, pkt *rtp.Packet) {
	f.mu.Lock()
	first := !f.seen[src]
	f.seen[src] = true
	onFirst := f.onFirst
	var buf []byte
	if f.conn != nil {
		f.rw.Apply(pkt, f.params)
		var err error
		buf, err = pkt.Marshal()
		if err != nil {
			buf = nil
			log.Debug().Err(err).Msg("marshal rtp")
		}
	}
	conn := f.conn
	f.mu.Unlock()

	if first && onFirst != nil {
		onFirst()
	}
	if conn != nil && buf != nil {
		if _, err := conn.Write(buf); err != nil && debugRTPEnabled() {
			log.Debug().Err(err).Msg("video sink write")
		}
	}
}

// forget drops per-track state for an ended track.
func (f *Forwarder) forget(src rtpSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, src)
}

// Close closes the sink socket.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}
