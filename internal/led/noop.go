package led

import (
	"sync"

	"github.com/smazurov/camsession/internal/logging"
)

// noop stands in on boards without controllable LEDs. It accepts every
// request and remembers the last one per LED.
type noop struct {
	logger logging.Logger

	mu   sync.Mutex
	last map[string]string
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger, last: make(map[string]string)}
}

func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	if !enabled {
		pattern = PatternNone
	}
	n.mu.Lock()
	n.last[ledType] = pattern
	n.mu.Unlock()

	if n.logger != nil {
		n.logger.Debug("LED control not available (no-op)",
			"led_type", ledType,
			"enabled", enabled,
			"pattern", pattern)
	}
	return nil
}

// state returns the last pattern requested for ledType.
func (n *noop) state(ledType string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last[ledType]
}

func (n *noop) Available() []string { return []string{} }

// Patterns is empty, so Supports only admits the empty pattern.
func (n *noop) Patterns() []string { return []string{} }
