package capture

import (
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/pkg/camera"
)

// Status is a snapshot of the service.
type Status struct {
	CameraID        string
	State           string
	Generation      string
	Facing          string
	Format          *camera.CaptureFormat
	Target          camera.Target
	Torch           bool
	AutofocusFix    bool
	DisplayRotation int
	Reacquires      int
	LastError       string
	FramesDelivered uint64
	BlackDropped    uint64
	Rotation        int
}

// Status returns the current state of the service.
func (s *Service) Status() (Status, error) {
	var st Status
	err := s.run(func() error {
		st = Status{
			CameraID:        s.cameraID(),
			State:           s.state,
			Generation:      s.gen.String(),
			Facing:          s.profile.Camera.Facing,
			Target:          s.profile.TargetValue(),
			Torch:           s.torch,
			AutofocusFix:    s.profile.Camera.Quirks.AutofocusFix,
			DisplayRotation: s.DisplayRotation().Degrees(),
			Reacquires:      s.reacquires,
			LastError:       s.lastError,
		}
		if s.session != nil {
			f := s.session.Format()
			st.Format = &f
		}
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	if stats := metrics.GetCameraStats(st.CameraID); stats != nil {
		st.FramesDelivered = stats.Delivered
		st.BlackDropped = stats.BlackDropped
		st.Rotation = stats.Rotation
	}
	return st, nil
}
