package led

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller using Linux sysfs LED interface
type sysfs struct {
	root string
	leds map[string]string // LED type -> sysfs name mapping
}

// newSysfs creates a sysfs LED controller rooted at root with board-specific LED mappings
func newSysfs(root string, leds map[string]string) *sysfs {
	return &sysfs{root: root, leds: leds}
}

// triggerFor maps a pattern to the kernel trigger name.
func triggerFor(pattern string) string {
	switch pattern {
	case PatternSolid, PatternNone:
		return "none"
	case PatternBlink, PatternHeartbeat:
		return "heartbeat"
	default:
		return pattern // raw trigger names pass through
	}
}

// Set controls an LED's state and optional pattern
func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	sysfsName, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}

	ledPath := filepath.Join(s.root, sysfsName)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s", ledType, ledPath)
	}

	if pattern != "" {
		if err := writeAttr(ledPath, "trigger", triggerFor(pattern)); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
	}

	// heartbeat drives brightness itself
	if enabled && triggerFor(pattern) == "heartbeat" {
		return nil
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	if err := writeAttr(ledPath, "brightness", brightness); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

func writeAttr(ledPath, name, value string) error {
	return os.WriteFile(filepath.Join(ledPath, name), []byte(value), 0o644)
}

// Available returns the sorted list of LED types supported by this controller
func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	slices.Sort(types)
	return types
}

// Patterns returns the list of patterns supported by this controller
func (s *sysfs) Patterns() []string {
	return []string{PatternSolid, PatternBlink, PatternHeartbeat, PatternNone}
}
