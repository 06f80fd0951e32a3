package webrtc

import (
	"testing"

	"github.com/frudas24/deskpilot/internal/display"
	"github.com/frudas24/deskpilot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFactoryPeerLifecycle verifies factory peers can be created and closed.
func TestFactoryPeerLifecycle(t *testing.T) {
	fwd, err := NewForwarder(display.NewRegistry(), "")
	require.NoError(t, err)
	f, err := NewFactory(ICEConfig{}, fwd)
	require.NoError(t, err)

	p, err := f.NewPeer(session.PeerEvents{})
	require.NoError(t, err)
	assert.Empty(t, p.LocalSDP())

	_, err = p.CreateAnswer()
	assert.Error(t, err, "answer needs a remote offer")
	assert.Error(t, p.SetRemoteOffer("not sdp"))
	assert.NoError(t, p.Close())
}
