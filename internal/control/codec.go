package control

import (
	"encoding/json"
	"fmt"
	"math"
)

// Keyboard wire flags. The wire uses 0 for a press.
const (
	keyFlagDown = 0
	keyFlagUp   = 1
)

type wireMouse struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	S    int32   `json:"s"`
	Flag int32   `json:"flag"`
}

type wireKeyboard struct {
	KeyValue uint32 `json:"key_value"`
	Flag     int    `json:"flag"`
}

type wireMessage struct {
	Type         ActionType      `json:"type"`
	Mouse        *wireMouse      `json:"mouse,omitempty"`
	Keyboard     *wireKeyboard   `json:"keyboard,omitempty"`
	AudioCapture *bool           `json:"audio_capture,omitempty"`
	HostInfo     json.RawMessage `json:"host_information,omitempty"`
	DisplayID    *int32          `json:"display_id,omitempty"`
}

// Encode serializes an action into its wire message.
func Encode(a Action) ([]byte, error) {
	msg := wireMessage{}
	switch v := a.(type) {
	case MouseAction:
		msg.Type = TypeMouse
		msg.Mouse = &wireMouse{X: clamp01(v.X), Y: clamp01(v.Y), S: v.Scroll, Flag: int32(v.Flag)}
	case KeyboardAction:
		flag := keyFlagUp
		if v.Down {
			flag = keyFlagDown
		}
		msg.Type = TypeKeyboard
		msg.Keyboard = &wireKeyboard{KeyValue: v.KeyCode, Flag: flag}
	case AudioCaptureAction:
		enabled := v.Enabled
		msg.Type = TypeAudioCapture
		msg.AudioCapture = &enabled
	case DisplaySelectAction:
		id := v.DisplayID
		msg.Type = TypeDisplayID
		msg.DisplayID = &id
	default:
		return nil, fmt.Errorf("unsupported action %T", a)
	}
	return json.Marshal(msg)
}

// HostMessage is a message received from the host on the session channel.
type HostMessage struct {
	Type ActionType
	Info json.RawMessage
}

// DecodeHost parses an inbound session channel message.
func DecodeHost(data []byte) (HostMessage, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return HostMessage{}, fmt.Errorf("decode host message: %w", err)
	}
	return HostMessage{Type: msg.Type, Info: msg.HostInfo}, nil
}

// TruncInt32 converts v to a 32-bit integer by truncating toward zero and
// wrapping modulo 2^32. Non-finite values become 0.
func TruncInt32(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	const span = 1 << 32
	m := math.Mod(math.Trunc(v), span)
	if m < 0 {
		m += span
	}
	return int32(uint32(m))
}
