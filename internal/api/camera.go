package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/camsession/internal/api/models"
	"github.com/smazurov/camsession/internal/capture"
	"github.com/smazurov/camsession/pkg/camera"
)

// registerCameraRoutes registers the capture session controls.
func (s *Server) registerCameraRoutes() {
	if s.capture == nil {
		s.logger.Debug("Capture service not available, skipping camera routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-camera",
		Method:      http.MethodGet,
		Path:        "/api/camera",
		Summary:     "Camera Status",
		Description: "Get the capture session state, negotiated format and frame counters",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.CameraStatusResponse, error) {
		return s.statusResponse()
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-camera",
		Method:      http.MethodPost,
		Path:        "/api/camera/start",
		Summary:     "Start Capture",
		Description: "Open the camera and start a capture session. Starting a started camera does nothing.",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.CameraStatusResponse, error) {
		if err := s.capture.Start(); err != nil {
			return nil, toHTTPError(err)
		}
		return s.statusResponse()
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-camera",
		Method:      http.MethodPost,
		Path:        "/api/camera/stop",
		Summary:     "Stop Capture",
		Description: "Stop the capture session and cancel any pending reacquire",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.CameraStatusResponse, error) {
		if err := s.capture.Stop(); err != nil {
			return nil, toHTTPError(err)
		}
		return s.statusResponse()
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-camera",
		Method:      http.MethodPost,
		Path:        "/api/camera/restart",
		Summary:     "Restart Capture Request",
		Description: "Resubmit the repeating capture request. The session is recreated when the device is no longer open.",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500, 503},
	}, func(_ context.Context, _ *struct{}) (*models.RestartResponse, error) {
		recreated, err := s.capture.Restart()
		if err != nil {
			return nil, toHTTPError(err)
		}
		return &models.RestartResponse{Body: models.RestartData{Recreated: recreated}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "trigger-autofocus",
		Method:      http.MethodPost,
		Path:        "/api/camera/focus",
		Summary:     "Trigger Autofocus",
		Description: "Run a single focus scan on the centre of the sensor. Only devices with the autofocus quirk react.",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 503},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		if err := s.capture.TriggerAutofocus(); err != nil {
			return nil, toHTTPError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-torch",
		Method:      http.MethodPut,
		Path:        "/api/camera/torch",
		Summary:     "Set Torch",
		Description: "Turn the torch on or off. The setting carries over to later sessions.",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, input *models.TorchRequest) (*models.CameraStatusResponse, error) {
		if err := s.capture.SetTorch(input.Body.Enabled); err != nil {
			return nil, toHTTPError(err)
		}
		return s.statusResponse()
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-target",
		Method:      http.MethodPut,
		Path:        "/api/camera/target",
		Summary:     "Set Capture Target",
		Description: "Change the requested size and frame rate. A new capture size recreates the session.",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 500, 503},
	}, func(_ context.Context, input *models.TargetRequest) (*models.RestartResponse, error) {
		recreated, err := s.capture.SetTarget(camera.Target{
			Width:  input.Body.Width,
			Height: input.Body.Height,
			MinFps: input.Body.Fps,
		})
		if err != nil {
			return nil, toHTTPError(err)
		}
		return &models.RestartResponse{Body: models.RestartData{Recreated: recreated}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-display-rotation",
		Method:      http.MethodPut,
		Path:        "/api/camera/display-rotation",
		Summary:     "Set Display Rotation",
		Description: "Set the display rotation used to compute the rotation of delivered frames",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *models.DisplayRotationRequest) (*struct{}, error) {
		r, ok := camera.RotationFromDegrees(input.Body.Degrees)
		if !ok {
			return nil, huma.Error400BadRequest("Rotation must be 0, 90, 180 or 270 degrees")
		}
		s.capture.SetDisplayRotation(r)
		return &struct{}{}, nil
	})
}

func (s *Server) statusResponse() (*models.CameraStatusResponse, error) {
	st, err := s.capture.Status()
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &models.CameraStatusResponse{Body: statusToAPI(st)}, nil
}

func statusToAPI(st capture.Status) models.CameraStatusData {
	data := models.CameraStatusData{
		CameraID:   st.CameraID,
		State:      st.State,
		Generation: st.Generation,
		Facing:     st.Facing,
		Target: models.TargetData{
			Width:  st.Target.Width,
			Height: st.Target.Height,
			Fps:    st.Target.MinFps,
		},
		Torch:           st.Torch,
		AutofocusFix:    st.AutofocusFix,
		DisplayRotation: st.DisplayRotation,
		FrameRotation:   st.Rotation,
		FramesDelivered: st.FramesDelivered,
		BlackDropped:    st.BlackDropped,
		Reacquires:      st.Reacquires,
		LastError:       st.LastError,
	}
	if st.Format != nil {
		data.Format = &models.FormatData{
			Width:       st.Format.Width,
			Height:      st.Format.Height,
			FpsMin:      st.Format.Framerate.Min,
			FpsMax:      st.Format.Framerate.Max,
			PixelFormat: st.Format.PixelFormat.String(),
		}
	}
	return data
}

// toHTTPError maps capture and camera errors to HTTP status codes.
func toHTTPError(err error) error {
	var camErr *camera.Error
	switch {
	case errors.Is(err, capture.ErrClosed):
		return huma.Error503ServiceUnavailable("Capture service is shutting down", err)
	case errors.Is(err, capture.ErrNotRunning):
		return huma.Error409Conflict("Capture session is not running", err)
	case errors.As(err, &camErr) && camErr.Code == camera.ErrCodeDeviceAccess:
		return huma.Error409Conflict("Camera device is not available", err)
	case errors.As(err, &camErr):
		return huma.Error500InternalServerError("Camera request failed", err)
	default:
		return huma.Error400BadRequest(err.Error())
	}
}
