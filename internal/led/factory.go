package led

import (
	"os"
	"strings"

	"github.com/smazurov/camsession/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// board describes the LEDs of a supported single-board computer. The
// indicator is the LED that shows capture activity.
type board struct {
	match     string
	leds      map[string]string
	indicator string
}

var boards = []board{
	{match: "NanoPC-T6", leds: map[string]string{"user": "usr_led", "system": "sys_led"}, indicator: "user"},
	{match: "Orange Pi", leds: map[string]string{"blue": "blue_led", "green": "green_led"}, indicator: "green"},
	{match: "Raspberry Pi", leds: map[string]string{"act": "ACT"}, indicator: "act"},
}

// New creates a new LED controller based on board detection and returns it
// with the board's capture indicator LED. Falls back to a no-op controller
// if LEDs are not available.
func New(logger logging.Logger) (Controller, string) {
	return newForModel(detectBoard(), sysfsLEDPath, logger)
}

func newForModel(model, root string, logger logging.Logger) (Controller, string) {
	if logger != nil {
		logger.Info("Detecting board for LED control", "board_model", model)
	}

	for _, b := range boards {
		if strings.Contains(model, b.match) {
			if logger != nil {
				logger.Info("Using sysfs LED controller", "board", b.match, "indicator", b.indicator)
			}
			return newSysfs(root, b.leds), b.indicator
		}
	}

	if logger != nil {
		logger.Info("No LED support detected, using no-op controller", "board_model", model)
	}
	return newNoop(logger), ""
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
