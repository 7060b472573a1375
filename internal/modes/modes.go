// Package modes defines the closed set of operating modes and how each one routes chat traffic.
package modes

import (
	"fmt"
	"strings"
)

// Mode is one of the fixed operating contexts governing chat routing.
type Mode string

// The mode set is closed; Parse rejects anything else.
const (
	Scrape      Mode = "SCRAPE"
	Data        Mode = "DATA"
	Investigate Mode = "INVESTIGATE"
	FactCheck   Mode = "FACT-CHECK"
	Graphics    Mode = "GRAPHICS"
)

// all lists the modes in display order.
var all = []Mode{Scrape, Data, Investigate, FactCheck, Graphics}

// All returns every mode in display order.
func All() []Mode {
	out := make([]Mode, len(all))
	copy(out, all)
	return out
}

// ErrUnknownMode is returned by Parse for values outside the closed set.
type ErrUnknownMode struct {
	Value string
}

func (e *ErrUnknownMode) Error() string {
	return fmt.Sprintf("unknown mode: %q", e.Value)
}

// Parse converts external input into a Mode. Matching is case-insensitive
// and surrounding whitespace is ignored.
func Parse(s string) (Mode, error) {
	candidate := Mode(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range all {
		if m == candidate {
			return m, nil
		}
	}
	return "", &ErrUnknownMode{Value: s}
}

// Valid reports whether m is a member of the closed set.
func (m Mode) Valid() bool {
	for _, known := range all {
		if m == known {
			return true
		}
	}
	return false
}

// Label returns the display label.
func (m Mode) Label() string {
	return string(m)
}

// PromptKey returns the prompt configuration key: lower-cased with hyphens
// replaced by underscores (FACT-CHECK -> fact_check).
func (m Mode) PromptKey() string {
	return strings.ReplaceAll(strings.ToLower(string(m)), "-", "_")
}

// EnvKey returns the suffix used for per-mode environment overrides
// (FACT-CHECK -> FACT_CHECK).
func (m Mode) EnvKey() string {
	return strings.ToUpper(m.PromptKey())
}
