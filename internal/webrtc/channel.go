package webrtc

import (
	"github.com/frudas24/deskpilot/internal/transport"
	"github.com/pion/webrtc/v3"
)

// DataChannel adapts a pion data channel to transport.Channel.
type DataChannel struct {
	dc *webrtc.DataChannel
}

var _ transport.Channel = (*DataChannel)(nil)

// Label returns the channel label.
func (c *DataChannel) Label() string { return c.dc.Label() }

// IsOpen reports whether the channel is open.
func (c *DataChannel) IsOpen() bool {
	return c.dc.ReadyState() == webrtc.DataChannelStateOpen
}

// SendText writes one text message.
func (c *DataChannel) SendText(payload string) error {
	if !c.IsOpen() {
		return transport.ErrChannelClosed
	}
	return c.dc.SendText(payload)
}

// Close closes the channel.
func (c *DataChannel) Close() error { return c.dc.Close() }
