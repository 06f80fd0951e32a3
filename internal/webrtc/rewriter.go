package webrtc

import "github.com/pion/rtp"

const (
	// maxTimestampJump is the largest input delta forwarded as is (2 s at 90 kHz).
	maxTimestampJump = 2 * 90000
	// fallbackTimestampStep replaces discontinuities (one frame at 30 fps).
	fallbackTimestampStep = 3000
)

// rtpWriteParams overrides header fields on rewritten packets. Zero keeps the input value.
type rtpWriteParams struct {
	payloadType uint8
	ssrc        uint32
}

// rtpRewriter maps packets from any number of tracks onto one continuous
// stream: sequence numbers are contiguous and timestamps only move forward.
type rtpRewriter struct {
	started   bool
	seq       uint16
	haveTS    bool
	lastInTS  uint32
	lastOutTS uint32
}

// Apply rewrites p in place.
func (r *rtpRewriter) Apply(p *rtp.Packet, params rtpWriteParams) {
	if !r.started {
		r.seq = p.SequenceNumber
		r.started = true
	} else {
		r.seq++
	}
	p.SequenceNumber = r.seq

	switch {
	case !r.haveTS:
		r.lastInTS = p.Timestamp
		r.lastOutTS = p.Timestamp
		r.haveTS = true
	case p.Timestamp != r.lastInTS:
		delta := p.Timestamp - r.lastInTS
		if delta > maxTimestampJump {
			delta = fallbackTimestampStep
		}
		r.lastInTS = p.Timestamp
		r.lastOutTS += delta
	}
	p.Timestamp = r.lastOutTS

	if params.payloadType != 0 {
		p.PayloadType = params.payloadType
	}
	if params.ssrc != 0 {
		p.SSRC = params.ssrc
	}
}
