package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/smazurov/camsession/internal/config"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/pkg/camera"
)

var (
	// ErrNotRunning is returned by controls that need a running session.
	ErrNotRunning = errors.New("capture session is not running")
	// ErrClosed is returned once the service has been closed.
	ErrClosed = errors.New("capture service is closed")
)

// Session states reported in Status and on the bus.
const (
	StateIdle    = "idle"
	StateOpening = "opening"
	StateRunning = "running"
	StateStopped = "stopped"
)

// Platform is everything the two driver generations need from the system.
type Platform interface {
	camera.DeviceManager
	camera.FrameSource
	camera.LegacyProvider
}

// EventPublisher publishes events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Config is the reacquire policy.
type Config struct {
	// ReacquireDelay is the wait before reopening a disconnected camera.
	ReacquireDelay time.Duration
	// MaxReacquireAttempts bounds consecutive reopen attempts; 0 disables
	// reacquiring.
	MaxReacquireAttempts int
}

// Option customises a Service.
type Option func(*Service)

// WithFrameHandler installs a consumer for delivered frames. The frame is
// only valid during the call.
func WithFrameHandler(fn func(camera.Frame)) Option {
	return func(s *Service) { s.onFrame = fn }
}

// WithLogger overrides the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service manages the capture session of one camera.
type Service struct {
	loop     *camera.Looper
	platform Platform
	bus      EventPublisher
	cfg      Config
	logger   *slog.Logger
	onFrame  func(camera.Frame)

	displayRotation atomic.Int32

	// Confined to loop.
	profile     config.Profile
	caps        *camera.Capabilities
	gen         camera.Generation
	session     *camera.Session
	pending     *attempt
	state       string
	lastError   string
	wanted      bool
	torch       bool
	reacquires  int
	cancelRetry func()
	closed      bool
}

// NewService validates the profile and starts the session Looper.
func NewService(platform Platform, profile config.Profile, bus EventPublisher, cfg Config, opts ...Option) (*Service, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid camera profile: %w", err)
	}
	gen, _ := profile.GenerationValue()

	s := &Service{
		platform: platform,
		bus:      bus,
		cfg:      cfg,
		logger:   logging.GetLogger("capture"),
		profile:  profile,
		gen:      gen,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loop = camera.NewLooper("camera-" + profile.Camera.ID)
	return s, nil
}

// run executes fn on the session Looper.
func (s *Service) run(fn func() error) error {
	var err error
	if !s.loop.Invoke(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		err = fn()
	}) {
		return ErrClosed
	}
	return err
}

// Start opens the camera. Starting a started service does nothing.
func (s *Service) Start() error {
	return s.run(func() error {
		s.wanted = true
		s.reacquires = 0
		s.open()
		return nil
	})
}

// Stop closes the session and cancels pending reacquires.
func (s *Service) Stop() error {
	return s.run(func() error {
		s.wanted = false
		s.cancelReacquire()
		s.teardown()
		return nil
	})
}

// Close stops the session and the Looper. The service cannot be reused.
func (s *Service) Close() {
	_ = s.Stop()
	s.loop.Invoke(func() { s.closed = true })
	s.loop.Quit()
	<-s.loop.Done()
}

// SetTorch records the torch flag and applies it to the running session.
// The flag carries over to sessions opened later.
func (s *Service) SetTorch(on bool) error {
	return s.run(func() error {
		s.torch = on
		if s.session != nil {
			s.session.SetTorch(on)
		}
		return nil
	})
}

// TriggerAutofocus runs a one-shot focus scan.
func (s *Service) TriggerAutofocus() error {
	return s.run(func() error {
		if s.session == nil {
			return ErrNotRunning
		}
		return s.session.TriggerAutofocus()
	})
}

// Restart resubmits the capture request, recreating the session when the
// device is no longer open. It reports whether the session was recreated.
func (s *Service) Restart() (bool, error) {
	var recreated bool
	err := s.run(func() error {
		if s.session == nil {
			return ErrNotRunning
		}
		var err error
		recreated, err = s.restartRequest()
		return err
	})
	return recreated, err
}

// SetTarget changes the requested geometry and frame rate.
func (s *Service) SetTarget(target camera.Target) (bool, error) {
	if target.Width <= 0 || target.Height <= 0 || target.MinFps <= 0 {
		return false, fmt.Errorf("target %dx%d@%d must be positive", target.Width, target.Height, target.MinFps)
	}
	var restarted bool
	err := s.run(func() error {
		s.profile.Target = config.TargetSection{Width: target.Width, Height: target.Height, Fps: target.MinFps}
		var err error
		restarted, err = s.applyTarget()
		return err
	})
	return restarted, err
}

// SetDisplayRotation sets the display rotation used for frame orientation.
func (s *Service) SetDisplayRotation(r camera.Rotation) {
	s.displayRotation.Store(int32(r))
}

// DisplayRotation returns the display rotation.
func (s *Service) DisplayRotation() camera.Rotation {
	return camera.Rotation(s.displayRotation.Load())
}

// ApplyProfile swaps the camera profile. A change to the camera itself or to
// the black-frame filter recreates a live session; a target-only change is
// applied in place.
func (s *Service) ApplyProfile(p config.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid camera profile: %w", err)
	}
	return s.run(func() error {
		old := s.profile
		s.profile = p
		s.gen, _ = p.GenerationValue()

		live := s.session != nil || s.opening()
		switch {
		case !reflect.DeepEqual(old.Camera, p.Camera) || old.BlackFrames != p.BlackFrames:
			s.logger.Info("Camera profile changed", "generation", s.gen.String())
			if live {
				s.recreate()
			}
		case old.Target != p.Target:
			if _, err := s.applyTarget(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Profile returns the current camera profile.
func (s *Service) Profile() config.Profile {
	var p config.Profile
	s.loop.Invoke(func() { p = s.profile })
	return p
}

// CameraID of the managed camera.
func (s *Service) CameraID() string {
	return s.Profile().Camera.ID
}

// open starts a session attempt unless one is live. An attempt that was
// stopped while still opening is taken back and reopened once it settles,
// since it may have been created from an older profile.
func (s *Service) open() {
	if s.session != nil {
		return
	}
	if a := s.pending; a != nil {
		if a.discard {
			a.discard = false
			a.reopen = true
			s.setState(StateOpening)
		}
		return
	}
	ch, err := s.profile.Characteristics()
	if err != nil {
		s.lastError = err.Error()
		s.setState(StateStopped)
		return
	}

	s.caps = camera.NewCapabilities(ch, s.profile.TargetValue(), s.profile.QuirksValue())
	a := &attempt{s: s, cameraID: ch.ID, number: s.reacquires}
	s.pending = a

	a.OnOpening()
	camera.CreateSession(s.loop, s.driver(), s.caps, a, a, camera.Options{
		DisplayRotation: s.DisplayRotation,
		BlackFrames:     s.profile.BlackFrameFilter(),
		Metrics:         metrics.NewSink(ch.ID),
		Logger:          logging.GetLogger("camera"),
	})
}

func (s *Service) driver() camera.Driver {
	if s.gen == camera.GenerationLegacy {
		return camera.NewLegacyDriver(s.platform)
	}
	return camera.NewRequestDriver(s.platform, s.platform)
}

// teardown stops whatever is live and reports the stopped state. An
// attempt still opening holds the device until it settles, so it is only
// marked and stopped from its own callback.
func (s *Service) teardown() {
	if s.pending != nil {
		s.pending.discard = true
	}
	if s.session != nil {
		s.session.Stop()
		s.session = nil
		metrics.SetSessionActive(s.cameraID(), false)
	}
	if s.state != StateIdle && s.state != StateStopped {
		s.setState(StateStopped)
	}
}

// recreate replaces the live session with a new attempt.
func (s *Service) recreate() {
	if s.opening() {
		s.logger.Info("Capture session still opening, reopening once settled")
		s.pending.reopen = true
		return
	}
	s.logger.Info("Recreating capture session")
	s.teardown()
	s.open()
}

// opening reports whether an attempt the service still wants is in flight.
func (s *Service) opening() bool {
	return s.pending != nil && !s.pending.discard
}

func (s *Service) restartRequest() (bool, error) {
	err := s.session.RestartCaptureRequest()
	if camera.IsDeviceAccess(err) {
		s.recreate()
		return true, nil
	}
	return false, err
}

// applyTarget retargets the capabilities. A new capture size needs new
// output surfaces, so the session is recreated; otherwise the repeating
// request is resubmitted.
func (s *Service) applyTarget() (bool, error) {
	target := s.profile.TargetValue()
	restarted := false
	defer func() {
		s.publish(events.TargetChangedEvent{
			CameraID:  s.cameraID(),
			Width:     target.Width,
			Height:    target.Height,
			MinFps:    target.MinFps,
			Restarted: restarted,
			Timestamp: timestamp(),
		})
	}()

	if s.caps == nil {
		return false, nil
	}
	s.caps.Retarget(target.Width, target.Height, target.MinFps)

	switch {
	case s.opening():
		s.recreate()
		restarted = true
	case s.session != nil:
		size, ok := s.caps.BestSize()
		current := s.session.Format()
		if !ok || size.Width != current.Width || size.Height != current.Height {
			s.recreate()
			restarted = true
			return true, nil
		}
		var err error
		restarted, err = s.restartRequest()
		if err != nil {
			return restarted, err
		}
	}
	return restarted, nil
}

// scheduleReacquire reopens the camera after ReacquireDelay unless the
// attempt budget is spent.
func (s *Service) scheduleReacquire() {
	if !s.wanted {
		return
	}
	if s.reacquires >= s.cfg.MaxReacquireAttempts {
		s.logger.Error("Giving up on camera", "attempts", s.reacquires)
		return
	}
	s.reacquires++
	s.logger.Info("Reacquiring camera", "attempt", s.reacquires, "delay", s.cfg.ReacquireDelay)

	s.cancelReacquire()
	s.cancelRetry = s.loop.PostDelayed(s.cfg.ReacquireDelay, func() {
		s.cancelRetry = nil
		if s.closed || !s.wanted {
			return
		}
		s.open()
	})
}

func (s *Service) cancelReacquire() {
	if s.cancelRetry != nil {
		s.cancelRetry()
		s.cancelRetry = nil
	}
}

func (s *Service) cameraID() string {
	return s.profile.Camera.ID
}

func (s *Service) setState(state string) {
	s.state = state
	ev := events.SessionStateChangedEvent{
		CameraID:   s.cameraID(),
		State:      state,
		Generation: s.gen.String(),
		Timestamp:  timestamp(),
	}
	if state == StateRunning && s.session != nil {
		ev.Format = s.session.Format().String()
	}
	s.publish(ev)
}

func (s *Service) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
