package camera

import (
	"log/slog"
	"time"
)

// State of a capture session.
type State int

// Session states. Stopped is terminal.
const (
	StateOpening State = iota
	StateConfiguring
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options tune a session.
type Options struct {
	// Target, when set, retargets the capabilities before negotiating.
	Target *Target
	// DisplayRotation reports the current display rotation; nil means 0.
	DisplayRotation func() Rotation
	BlackFrames     BlackFrameFilter
	Metrics         Metrics
	Logger          *slog.Logger
}

// Session owns one open camera from open to close. All methods must be
// called on the session Looper.
type Session struct {
	loop    *Looper
	driver  Driver
	caps    *Capabilities
	create  CreateCallback
	events  Events
	metrics Metrics
	logger  *slog.Logger

	state     State
	format    CaptureFormat
	focusArea MeteringRectangle
	torch     bool
	ready     bool
	resolved  bool
	closed    bool
	openedAt  time.Time
	processor *frameProcessor
}

// CreateSession starts opening the camera on loop. The outcome is reported
// to cb on the loop; on success cb receives the session.
func CreateSession(loop *Looper, driver Driver, caps *Capabilities, cb CreateCallback, events Events, opts Options) {
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("camera_id", caps.ID(), "generation", driver.Generation().String())

	s := &Session{
		loop:    loop,
		driver:  driver,
		caps:    caps,
		create:  cb,
		events:  events,
		metrics: opts.Metrics,
		logger:  logger,
		processor: &frameProcessor{
			gen:             driver.Generation(),
			caps:            caps,
			displayRotation: opts.DisplayRotation,
			filter:          opts.BlackFrames,
			events:          events,
			metrics:         opts.Metrics,
			logger:          logger,
		},
	}

	start := func() { s.start(opts.Target) }
	if loop.IsCurrent() {
		start()
		return
	}
	if !loop.Post(start) {
		cb.OnSessionFailed(FailureError, "session looper has quit")
	}
}

func (s *Session) start(target *Target) {
	s.loop.CheckOnLoop()
	s.state = StateOpening
	s.openedAt = time.Now()

	if target != nil {
		s.caps.Retarget(target.Width, target.Height, target.MinFps)
	}
	format, ok := s.caps.BestFormat()
	if !ok {
		s.state = StateStopped
		s.resolveFailure(FailureError, "No supported capture formats.")
		return
	}
	switch s.driver.Generation() {
	case GenerationLegacy:
		format.PixelFormat = PixelFormatNV21
	default:
		format.PixelFormat = PixelFormatTexture
	}
	s.format = format
	s.focusArea = FocusArea(s.caps.ActiveArray())
	s.metrics.Resolution(s.driver.Generation(), Size{Width: format.Width, Height: format.Height})

	s.logger.Info("Opening camera", "format", format.String())
	err := s.driver.Open(DriverContext{
		Loop:     s.loop,
		Caps:     s.caps,
		Format:   format,
		Listener: (*sessionListener)(s),
		Logger:   s.logger,
	})
	if err != nil {
		s.state = StateStopped
		s.resolveFailure(FailureError, describe(err))
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.loop.CheckOnLoop()
	return s.state
}

// Format returns the negotiated capture format.
func (s *Session) Format() CaptureFormat {
	s.loop.CheckOnLoop()
	return s.format
}

// Generation of the driver behind the session.
func (s *Session) Generation() Generation {
	return s.driver.Generation()
}

// Torch reports the torch flag.
func (s *Session) Torch() bool {
	s.loop.CheckOnLoop()
	return s.torch
}

// Stop tears the session down. Calling it again does nothing.
func (s *Session) Stop() {
	s.loop.CheckOnLoop()
	if s.state == StateStopped {
		return
	}
	s.logger.Debug("Stopping capture session")
	begin := time.Now()
	s.state = StateStopped
	s.driver.Close()
	s.metrics.StopDuration(s.driver.Generation(), time.Since(begin))
}

// SetTorch turns the torch on or off. The request generation applies it to
// the live request right away; device rejections are only logged.
func (s *Session) SetTorch(on bool) {
	s.loop.CheckOnLoop()
	s.torch = on
	if s.driver.Generation() != GenerationRequest || s.state != StateRunning {
		return
	}
	if err := s.driver.Submit(buildRequest(s.caps, s.torch, FocusTriggerUnset)); err != nil {
		s.logger.Warn("Failed to apply torch", "on", on, "error", err)
	}
}

// RestartCaptureRequest rebuilds and resubmits the repeating request, for
// example after the capabilities were retargeted. A device-access error
// means the session must be recreated.
func (s *Session) RestartCaptureRequest() error {
	s.loop.CheckOnLoop()
	if s.state == StateStopped || !s.driver.IsOpen() {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}
	return s.driver.Submit(buildRequest(s.caps, s.torch, FocusTriggerUnset))
}

// TriggerAutofocus runs a single focus scan on the centre of the sensor and
// then returns to the steady-state request. It only does something when the
// autofocus quirk is enabled.
func (s *Session) TriggerAutofocus() error {
	s.loop.CheckOnLoop()
	if !s.caps.AutofocusFix() {
		return nil
	}
	if s.state != StateRunning {
		return newError(ErrCodeDeviceAccess, "capture session is not running", nil)
	}

	req := buildRequest(s.caps, s.torch, FocusTriggerStart)
	req.FocusMode = FocusAuto
	req.FocusRegions = []MeteringRectangle{s.focusArea}
	if err := s.driver.Capture(req); err != nil {
		s.logger.Warn("Autofocus trigger rejected", "error", err)
	}
	if err := s.driver.Submit(buildRequest(s.caps, s.torch, FocusTriggerIdle)); err != nil {
		s.logger.Warn("Failed to restore repeating request", "error", err)
	}
	return nil
}

// fail stops the session after a fatal problem and routes the report to
// the creation callback before ready, to the event sink afterwards.
func (s *Session) fail(kind FailureKind, message string) {
	if s.state == StateStopped {
		return
	}
	s.state = StateStopped
	s.driver.Close()

	if !s.ready {
		s.resolveFailure(kind, message)
		return
	}
	s.logger.Warn("Capture session failed", "kind", kind.String(), "message", message)
	if kind == FailureDisconnected {
		s.events.OnDisconnected()
		return
	}
	s.events.OnError(message)
}

func (s *Session) resolveFailure(kind FailureKind, message string) {
	if s.resolved {
		return
	}
	s.resolved = true
	s.logger.Warn("Failed to start capture session", "kind", kind.String(), "message", message)
	s.create.OnSessionFailed(kind, message)
}

// sessionListener receives driver results for a Session.
type sessionListener Session

func (l *sessionListener) s() *Session { return (*Session)(l) }

func (l *sessionListener) DeviceOpened() {
	s := l.s()
	s.loop.CheckOnLoop()
	if s.state != StateOpening {
		return
	}
	s.logger.Debug("Camera opened")
	s.state = StateConfiguring
	if err := s.driver.Configure(); err != nil {
		s.fail(FailureError, describe(err))
	}
}

func (l *sessionListener) Configured() {
	s := l.s()
	s.loop.CheckOnLoop()
	if s.state != StateConfiguring {
		return
	}
	s.logger.Debug("Camera capture session configured")

	if err := s.driver.Submit(buildRequest(s.caps, s.torch, FocusTriggerUnset)); err != nil {
		s.fail(FailureError, describe(err))
		return
	}
	s.processor.reset(s.openedAt)
	if err := s.driver.StartFrames(); err != nil {
		s.fail(FailureError, describe(err))
		return
	}

	s.state = StateRunning
	s.ready = true
	s.resolved = true
	s.logger.Info("Camera session started", "format", s.format.String())
	s.create.OnSessionReady(s)
}

func (l *sessionListener) ConfigureFailed(err error) {
	s := l.s()
	s.loop.CheckOnLoop()
	s.fail(FailureError, describe(err))
}

func (l *sessionListener) Disconnected() {
	s := l.s()
	s.loop.CheckOnLoop()
	s.fail(FailureDisconnected, "Camera disconnected / evicted.")
}

func (l *sessionListener) Error(err error) {
	s := l.s()
	s.loop.CheckOnLoop()
	s.fail(FailureError, describe(err))
}

func (l *sessionListener) Closed() {
	s := l.s()
	s.loop.CheckOnLoop()
	if !s.ready || s.closed {
		return
	}
	s.closed = true
	s.logger.Debug("Camera device closed")
	s.events.OnClosed()
}

func (l *sessionListener) Frame(frame RawFrame) {
	s := l.s()
	s.loop.CheckOnLoop()
	if s.state != StateRunning {
		frame.Buffer.Release()
		return
	}
	s.processor.process(frame)
}
