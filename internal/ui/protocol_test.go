package ui

import (
	"encoding/json"
	"testing"

	"github.com/frudas24/deskpilot/internal/control"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return msg
}

// TestMessageIDForms verifies ids are read from numbers and numeric strings.
func TestMessageIDForms(t *testing.T) {
	n, ok := decode(t, `{"t":"display","id":1}`).IDNumber()
	require.True(t, ok)
	assert.Equal(t, 1.0, n)

	n, ok = decode(t, `{"t":"display","id":" 2 "}`).IDNumber()
	require.True(t, ok)
	assert.Equal(t, 2.0, n)

	_, ok = decode(t, `{"t":"display","id":"abc"}`).IDNumber()
	assert.False(t, ok)
	_, ok = decode(t, `{"t":"display"}`).IDNumber()
	assert.False(t, ok)

	assert.Equal(t, "987654", decode(t, `{"t":"connect","id":"987654"}`).IDString())
	assert.Equal(t, "987654", decode(t, `{"t":"connect","id":987654}`).IDString())
	assert.Equal(t, "", decode(t, `{"t":"connect"}`).IDString())
}

// TestMessageFlagForms verifies mouse flags decode from names and numbers, unknown names becoming move.
func TestMessageFlagForms(t *testing.T) {
	assert.Equal(t, control.FlagRightDown, decode(t, `{"t":"raw_mouse","flag":"right_down"}`).Flag)
	assert.Equal(t, control.FlagWheelVertical, decode(t, `{"t":"raw_mouse","flag":7}`).Flag)
	assert.Equal(t, control.FlagMove, decode(t, `{"t":"raw_mouse","flag":"bogus"}`).Flag)
}

// TestMessagePointerFields verifies pointer messages carry movement and touch lists.
func TestMessagePointerFields(t *testing.T) {
	msg := decode(t, `{"t":"pointer","phase":"move","kind":"touch","id":3,"x":10,"y":20,"mx":1,"my":-2,"touches":[{"x":10,"y":20}]}`)
	assert.Equal(t, "move", msg.Phase)
	assert.Equal(t, "touch", msg.Kind)
	assert.Equal(t, 1.0, msg.MX)
	assert.Equal(t, -2.0, msg.MY)
	assert.Equal(t, []control.Point{{X: 10, Y: 20}}, msg.Touches)
}

// TestButtonFor verifies on-screen button names map to pointer button indexes.
func TestButtonFor(t *testing.T) {
	assert.Equal(t, 0, buttonFor("left"))
	assert.Equal(t, 1, buttonFor("middle"))
	assert.Equal(t, 2, buttonFor("right"))
	assert.Equal(t, 0, buttonFor(""))
}
