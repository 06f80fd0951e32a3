// Package prefs persists user preferences between runs.
package prefs

// Prefs holds the remembered choices. Passwords are never stored.
type Prefs struct {
	TouchMode      string `yaml:"touch_mode,omitempty"`
	TransmissionID string `yaml:"transmission_id,omitempty"`
}
