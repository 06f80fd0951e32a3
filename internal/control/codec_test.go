package control

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeMouse verifies mouse actions encode to the wire format.
func TestEncodeMouse(t *testing.T) {
	data, err := Encode(MouseAction{X: 0.25, Y: 0.5, Flag: FlagWheelVertical, Scroll: -3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":0,"mouse":{"x":0.25,"y":0.5,"s":-3,"flag":7}}`, string(data))
}

// TestEncodeMouseClampsPosition verifies encoded positions are clamped to [0,1].
func TestEncodeMouseClampsPosition(t *testing.T) {
	data, err := Encode(MouseAction{X: -2, Y: 7, Flag: FlagMove})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":0,"mouse":{"x":0,"y":1,"s":0,"flag":0}}`, string(data))
}

// TestEncodeKeyboardUsesInvertedFlag verifies key down encodes as 0 and key up as 1.
func TestEncodeKeyboardUsesInvertedFlag(t *testing.T) {
	down, err := Encode(KeyboardAction{KeyCode: 65, Down: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1,"keyboard":{"key_value":65,"flag":0}}`, string(down))

	up, err := Encode(KeyboardAction{KeyCode: 65})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1,"keyboard":{"key_value":65,"flag":1}}`, string(up))
}

// TestEncodeZeroValuesAreKept verifies zero fields are still written.
func TestEncodeZeroValuesAreKept(t *testing.T) {
	audio, err := Encode(AudioCaptureAction{Enabled: false})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":2,"audio_capture":false}`, string(audio))

	display, err := Encode(DisplaySelectAction{DisplayID: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":4,"display_id":0}`, string(display))
}

// TestEncodeRejectsUnknownAction verifies unknown actions fail to encode.
func TestEncodeRejectsUnknownAction(t *testing.T) {
	_, err := Encode(nil)
	require.Error(t, err)
}

// TestParseMouseFlag verifies flag names map to their values.
func TestParseMouseFlag(t *testing.T) {
	assert.Equal(t, FlagRightUp, ParseMouseFlag("right_up"))
	assert.Equal(t, FlagWheelHorizontal, ParseMouseFlag(" Wheel_Horizontal "))
	assert.Equal(t, FlagMove, ParseMouseFlag("double_click"))
	assert.Equal(t, "middle_down", FlagMiddleDown.String())
}

// TestMouseFlagUnmarshal verifies flags decode from JSON names or numbers.
func TestMouseFlagUnmarshal(t *testing.T) {
	var msg struct {
		A MouseFlag `json:"a"`
		B MouseFlag `json:"b"`
		C MouseFlag `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"left_down","b":4,"c":"nope"}`), &msg))
	assert.Equal(t, FlagLeftDown, msg.A)
	assert.Equal(t, FlagRightUp, msg.B)
	assert.Equal(t, FlagMove, msg.C)
}

// TestButtonFlag verifies button indexes map to down and up flags.
func TestButtonFlag(t *testing.T) {
	assert.Equal(t, FlagLeftDown, ButtonFlag(0, true))
	assert.Equal(t, FlagMiddleUp, ButtonFlag(1, false))
	assert.Equal(t, FlagRightDown, ButtonFlag(2, true))
	assert.Equal(t, FlagLeftUp, ButtonFlag(4, false))
}

// TestTruncInt32 verifies values truncate toward zero and wrap at 32 bits.
func TestTruncInt32(t *testing.T) {
	cases := []struct {
		in   float64
		want int32
	}{
		{3.9, 3},
		{-3.9, -3},
		{120, 120},
		{4294967296 + 5, 5},
		{2147483648, -2147483648},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TruncInt32(c.in), "in=%v", c.in)
	}
}

// TestDecodeHost verifies host messages decode their type and payload.
func TestDecodeHost(t *testing.T) {
	msg, err := DecodeHost([]byte(`{"type":3,"host_information":{"displays":2}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeHostInformation, msg.Type)
	assert.JSONEq(t, `{"displays":2}`, string(msg.Info))

	_, err = DecodeHost([]byte(`not json`))
	require.Error(t, err)
}
