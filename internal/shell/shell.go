// Package shell detects whether a request originates from the native mobile
// shell's embedded web view or from a plain browser.
package shell

import "strings"

// Mode is the runtime environment a sign-in flow is dispatched for.
type Mode int

const (
	ModeWeb Mode = iota
	ModeNative
)

// String returns the mode name for logging.
func (m Mode) String() string {
	if m == ModeNative {
		return "native"
	}
	return "web"
}

// DefaultMarker is the token the native shell injects into its web view's
// user agent string.
const DefaultMarker = "ShellBridge"

// Detector decides the runtime mode from the client identification string.
type Detector struct {
	marker string
}

// NewDetector creates a detector for the given user agent marker. An empty
// marker falls back to DefaultMarker.
func NewDetector(marker string) Detector {
	if marker == "" {
		marker = DefaultMarker
	}
	return Detector{marker: strings.ToLower(marker)}
}

// Detect returns ModeNative when the user agent carries the shell marker,
// case-insensitively. A missing user agent always maps to ModeWeb: absence of
// a signal is the safe default.
func (d Detector) Detect(userAgent string) Mode {
	if userAgent == "" {
		return ModeWeb
	}
	if strings.Contains(strings.ToLower(userAgent), d.marker) {
		return ModeNative
	}
	return ModeWeb
}

// IsNativeShell reports whether the user agent belongs to the native shell.
func (d Detector) IsNativeShell(userAgent string) bool {
	return d.Detect(userAgent) == ModeNative
}
