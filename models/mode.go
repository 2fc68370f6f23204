// Package models defines the data passed between pipeline stages.
package models

import (
	"fmt"
	"strings"
)

// Mode selects which extractor combination and caps are used for a digest.
type Mode int

const (
	// ModeCode favours code examples and API signatures (default).
	ModeCode Mode = iota
	ModeInfo // Short examples plus prose overview
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeInfo:
		return "info"
	default:
		return "code"
	}
}

// ParseMode converts a flag value into a Mode. Empty input means ModeCode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "code":
		return ModeCode, nil
	case "info":
		return ModeInfo, nil
	default:
		return ModeCode, fmt.Errorf("unknown mode %q (want code or info)", s)
	}
}

// MarshalYAML renders the mode by name in yaml output.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// MarshalText renders the mode by name in json output.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
