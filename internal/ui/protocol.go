// Package ui bridges the local browser page to the input and session layers.
package ui

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/frudas24/deskpilot/internal/control"
)

// Message is an inbound UI websocket payload. Only the fields relevant to T are set.
type Message struct {
	T string `json:"t"`

	// ID is a pointer id, a display id or a transmission id depending on T.
	ID json.RawMessage `json:"id,omitempty"`

	Hover  bool          `json:"hover,omitempty"`
	Fine   bool          `json:"fine,omitempty"`
	Rect   *control.Rect `json:"rect,omitempty"`
	Mode   string        `json:"mode,omitempty"`
	Locked bool          `json:"locked,omitempty"`

	Phase   string          `json:"phase,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Button  int             `json:"button,omitempty"`
	X       float64         `json:"x,omitempty"`
	Y       float64         `json:"y,omitempty"`
	MX      float64         `json:"mx,omitempty"`
	MY      float64         `json:"my,omitempty"`
	Touches []control.Point `json:"touches,omitempty"`
	DX      float64         `json:"dx,omitempty"`
	DY      float64         `json:"dy,omitempty"`

	Code      uint32 `json:"code,omitempty"`
	Down      bool   `json:"down,omitempty"`
	Repeat    bool   `json:"repeat,omitempty"`
	TextFocus bool   `json:"textFocus,omitempty"`

	Control string            `json:"control,omitempty"`
	Dir     string            `json:"dir,omitempty"`
	Source  string            `json:"source,omitempty"`
	Active  bool              `json:"active,omitempty"`
	Flag    control.MouseFlag `json:"flag,omitempty"`
	Scroll  float64           `json:"scroll,omitempty"`
	Enabled bool              `json:"enabled,omitempty"`

	Password string `json:"password,omitempty"`
}

// IDNumber reads ID as a number. Numeric strings are accepted.
func (m Message) IDNumber() (float64, bool) {
	if len(m.ID) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(m.ID, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(m.ID, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IDString reads ID as text. Numbers are formatted without exponent.
func (m Message) IDString() string {
	if len(m.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.ID, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(m.ID, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// buttonFor maps an on-screen mouse button name.
func buttonFor(name string) int {
	switch name {
	case "middle":
		return 1
	case "right":
		return 2
	default:
		return 0
	}
}
