package models

// LEDRequest sets one LED directly.
type LEDRequest struct {
	Body struct {
		Type    string  `json:"type" example:"user" minLength:"1" doc:"Board-specific LED name (user, act, green, ...)"`
		Enabled bool    `json:"enabled" example:"true" doc:"Whether the LED should be on"`
		Pattern *string `json:"pattern,omitempty" example:"solid" doc:"Pattern from the capabilities list; omitted keeps the current trigger"`
	}
}

// LEDCapabilitiesData lists what the board supports.
type LEDCapabilitiesData struct {
	AvailableTypes    []string `json:"available_types" doc:"LED names on this board"`
	AvailablePatterns []string `json:"available_patterns" doc:"Patterns the board accepts"`
}

type LEDCapabilitiesResponse struct {
	Body LEDCapabilitiesData
}

// LEDIndicatorData is the state of the capture indicator LED.
type LEDIndicatorData struct {
	LED     string `json:"led" example:"user" doc:"LED used as capture indicator, empty when the board has none"`
	Pattern string `json:"pattern" example:"solid" doc:"Pattern last applied: solid while running, blink while opening, none when idle"`
}

type LEDIndicatorResponse struct {
	Body LEDIndicatorData
}
