package led

import "slices"

// Patterns understood by every controller. Controllers may accept raw
// kernel trigger names on top of these.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
	PatternNone      = "none"
)

// Controller drives board LEDs. ledType is a board-specific name such as
// "user" or "act". An empty pattern leaves the trigger untouched.
type Controller interface {
	Set(ledType string, enabled bool, pattern string) error
	Available() []string
	Patterns() []string
}

// Supports reports whether c lists pattern. The empty pattern is always
// accepted.
func Supports(c Controller, pattern string) bool {
	return pattern == "" || slices.Contains(c.Patterns(), pattern)
}
