// Package control turns local pointer, touch and keyboard input into remote input actions.
package control

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ActionType is the wire discriminant of an input action.
type ActionType int

const (
	// TypeMouse carries a MouseAction.
	TypeMouse ActionType = 0
	// TypeKeyboard carries a KeyboardAction.
	TypeKeyboard ActionType = 1
	// TypeAudioCapture toggles audio capture on the host.
	TypeAudioCapture ActionType = 2
	// TypeHostInformation is sent by the host, never by the client.
	TypeHostInformation ActionType = 3
	// TypeDisplayID selects the display streamed by the host.
	TypeDisplayID ActionType = 4
)

// MouseFlag identifies the mouse event carried by a MouseAction.
type MouseFlag int32

const (
	FlagMove MouseFlag = iota
	FlagLeftDown
	FlagLeftUp
	FlagRightDown
	FlagRightUp
	FlagMiddleDown
	FlagMiddleUp
	FlagWheelVertical
	FlagWheelHorizontal
)

var mouseFlagNames = [...]string{
	FlagMove:            "move",
	FlagLeftDown:        "left_down",
	FlagLeftUp:          "left_up",
	FlagRightDown:       "right_down",
	FlagRightUp:         "right_up",
	FlagMiddleDown:      "middle_down",
	FlagMiddleUp:        "middle_up",
	FlagWheelVertical:   "wheel_vertical",
	FlagWheelHorizontal: "wheel_horizontal",
}

// String returns the symbolic name of the flag.
func (f MouseFlag) String() string {
	if f >= 0 && int(f) < len(mouseFlagNames) {
		return mouseFlagNames[f]
	}
	return "MouseFlag(" + strconv.Itoa(int(f)) + ")"
}

// ParseMouseFlag resolves a symbolic flag name. Unknown names map to FlagMove.
func ParseMouseFlag(name string) MouseFlag {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range mouseFlagNames {
		if n == name {
			return MouseFlag(i)
		}
	}
	return FlagMove
}

// UnmarshalJSON accepts either the integer value or the symbolic name.
func (f *MouseFlag) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*f = ParseMouseFlag(name)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = MouseFlag(TruncInt32(v))
	return nil
}

// ButtonFlag maps a DOM-style button index to its down or up flag.
// 0 is left, 1 middle, 2 right; anything else is treated as left.
func ButtonFlag(button int, down bool) MouseFlag {
	switch button {
	case 1:
		return pick(down, FlagMiddleDown, FlagMiddleUp)
	case 2:
		return pick(down, FlagRightDown, FlagRightUp)
	default:
		return pick(down, FlagLeftDown, FlagLeftUp)
	}
}

// pick returns d for a press and u for a release.
func pick(down bool, d, u MouseFlag) MouseFlag {
	if down {
		return d
	}
	return u
}

// Action is one outbound input action. Exactly one concrete type is sent per message.
type Action interface {
	ActionType() ActionType
}

// MouseAction moves, clicks or scrolls at a normalized position.
type MouseAction struct {
	X      float64
	Y      float64
	Flag   MouseFlag
	Scroll int32
}

// KeyboardAction presses or releases a key.
type KeyboardAction struct {
	KeyCode uint32
	Down    bool
}

// AudioCaptureAction enables or disables host audio capture.
type AudioCaptureAction struct {
	Enabled bool
}

// DisplaySelectAction asks the host to stream a display.
type DisplaySelectAction struct {
	DisplayID int32
}

// ActionType implements Action.
func (MouseAction) ActionType() ActionType { return TypeMouse }

// ActionType implements Action.
func (KeyboardAction) ActionType() ActionType { return TypeKeyboard }

// ActionType implements Action.
func (AudioCaptureAction) ActionType() ActionType { return TypeAudioCapture }

// ActionType implements Action.
func (DisplaySelectAction) ActionType() ActionType { return TypeDisplayID }
