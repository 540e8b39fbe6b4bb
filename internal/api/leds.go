package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/camsession/internal/api/models"
	"github.com/smazurov/camsession/internal/led"
)

// LEDIndicator reports the capture indicator state.
type LEDIndicator interface {
	Indicator() string
	Pattern() string
}

func (s *Server) registerLEDRoutes() {
	ctrl := s.options.LEDController
	if ctrl == nil {
		s.logger.Debug("LED controller not available, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Set an LED directly. The capture indicator is overwritten on the next session state change.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 422},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LEDRequest) (*struct{}, error) {
		pattern := ""
		if input.Body.Pattern != nil {
			pattern = *input.Body.Pattern
		}
		if !led.Supports(ctrl, pattern) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("pattern %q is not supported", pattern))
		}
		if err := ctrl.Set(input.Body.Type, input.Body.Enabled, pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Description: "List the LEDs and patterns this board supports",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LEDCapabilitiesResponse, error) {
		return &models.LEDCapabilitiesResponse{
			Body: models.LEDCapabilitiesData{
				AvailableTypes:    ctrl.Available(),
				AvailablePatterns: ctrl.Patterns(),
			},
		}, nil
	})

	indicator := s.options.LEDIndicator
	if indicator == nil {
		return
	}
	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-indicator",
		Method:      http.MethodGet,
		Path:        "/api/leds/indicator",
		Summary:     "Get Capture Indicator",
		Description: "Report which LED shows capture activity and the pattern it currently shows",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LEDIndicatorResponse, error) {
		return &models.LEDIndicatorResponse{
			Body: models.LEDIndicatorData{
				LED:     indicator.Indicator(),
				Pattern: indicator.Pattern(),
			},
		}, nil
	})
}
