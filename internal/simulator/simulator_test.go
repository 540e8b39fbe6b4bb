package simulator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/camsession/pkg/camera"
)

const waitTimeout = 2 * time.Second

// recorder implements camera.CreateCallback and camera.Events over channels.
type recorder struct {
	ready        chan *camera.Session
	failed       chan string
	frames       chan byte
	errs         chan string
	disconnected chan struct{}
	closed       chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		ready:        make(chan *camera.Session, 1),
		failed:       make(chan string, 1),
		frames:       make(chan byte, 64),
		errs:         make(chan string, 4),
		disconnected: make(chan struct{}, 1),
		closed:       make(chan struct{}, 1),
	}
}

func (r *recorder) OnSessionReady(s *camera.Session) { r.ready <- s }

func (r *recorder) OnSessionFailed(_ camera.FailureKind, message string) { r.failed <- message }

func (r *recorder) OnOpening() {}

func (r *recorder) OnFrameCaptured(frame camera.Frame) {
	i420, err := frame.Buffer.ToI420()
	if err != nil {
		return
	}
	select {
	case r.frames <- i420.DataY()[0]:
	default:
	}
}

func (r *recorder) OnError(message string) { r.errs <- message }

func (r *recorder) OnDisconnected() { r.disconnected <- struct{}{} }

func (r *recorder) OnClosed() { r.closed <- struct{}{} }

func testCaps(gen camera.Generation) *camera.Capabilities {
	pf := camera.PixelFormatTexture
	if gen == camera.GenerationLegacy {
		pf = camera.PixelFormatNV21
	}
	return camera.NewCapabilities(camera.Characteristics{
		ID:           "0",
		Facing:       camera.FacingBack,
		PixelFormat:  pf,
		PreviewSizes: []camera.Size{{Width: 64, Height: 48}, {Width: 32, Height: 24}},
		FpsRanges:    []camera.FramerateRange{{Min: 30, Max: 30}},
		ActiveArray:  camera.Rect{Right: 640, Bottom: 480},
	}, camera.Target{Width: 64, Height: 48, MinFps: 30}, camera.Quirks{})
}

type harness struct {
	t        *testing.T
	loop     *camera.Looper
	platform *Platform
	rec      *recorder
	session  *camera.Session
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	if opts.FrameInterval == 0 {
		opts.FrameInterval = 5 * time.Millisecond
	}
	loop := camera.NewLooper("test")
	t.Cleanup(func() {
		loop.Quit()
		<-loop.Done()
	})
	return &harness{t: t, loop: loop, platform: New(opts), rec: newRecorder()}
}

func (h *harness) driver(gen camera.Generation) camera.Driver {
	if gen == camera.GenerationLegacy {
		return camera.NewLegacyDriver(h.platform)
	}
	return camera.NewRequestDriver(h.platform, h.platform)
}

func (h *harness) create(gen camera.Generation, filter camera.BlackFrameFilter) {
	camera.CreateSession(h.loop, h.driver(gen), testCaps(gen), h.rec, h.rec, camera.Options{BlackFrames: filter})
}

func (h *harness) start(gen camera.Generation, filter camera.BlackFrameFilter) {
	h.t.Helper()
	h.create(gen, filter)
	select {
	case h.session = <-h.rec.ready:
	case msg := <-h.rec.failed:
		h.t.Fatalf("Session failed: %s", msg)
	case <-time.After(waitTimeout):
		h.t.Fatal("Timed out waiting for session")
	}
}

func (h *harness) stop() {
	h.loop.Invoke(func() { h.session.Stop() })
}

func (h *harness) frame() byte {
	h.t.Helper()
	select {
	case luma := <-h.rec.frames:
		return luma
	case <-time.After(waitTimeout):
		h.t.Fatal("Timed out waiting for frame")
		return 0
	}
}

func (h *harness) failure() string {
	h.t.Helper()
	select {
	case msg := <-h.rec.failed:
		return msg
	case <-h.rec.ready:
		h.t.Fatal("Expected session to fail")
	case <-time.After(waitTimeout):
		h.t.Fatal("Timed out waiting for failure")
	}
	return ""
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("Timed out waiting for %s", what)
	}
}

func TestRequestGenerationStreams(t *testing.T) {
	h := newHarness(t, Options{})
	h.start(camera.GenerationRequest, camera.BlackFrameFilter{Threshold: -1})

	for range 3 {
		if luma := h.frame(); luma != defaultLuma {
			t.Errorf("Expected luma %d, got %d", defaultLuma, luma)
		}
	}

	stats := h.platform.Stats()
	if !stats.Active || stats.Opens != 1 {
		t.Errorf("Expected one active open, got %+v", stats)
	}
	if stats.Outputs != 1 {
		t.Errorf("Expected one output surface, got %d", stats.Outputs)
	}
	if stats.Requests < 1 {
		t.Error("Expected a repeating request")
	}
	if stats.LastRequest.AETargetFpsRange != (camera.FramerateRange{Min: 30, Max: 30}) {
		t.Errorf("Unexpected fps range %v", stats.LastRequest.AETargetFpsRange)
	}

	h.stop()
	waitSignal(t, h.rec.closed, "close")
	h.loop.Invoke(func() {})

	stats = h.platform.Stats()
	if stats.Active {
		t.Error("Expected device to be closed")
	}
	if stats.Outstanding != 0 {
		t.Errorf("Expected all textures returned, %d outstanding", stats.Outstanding)
	}
}

func TestLegacyGenerationStreams(t *testing.T) {
	h := newHarness(t, Options{})
	h.start(camera.GenerationLegacy, camera.BlackFrameFilter{Threshold: -1})

	for range 5 {
		if luma := h.frame(); luma != defaultLuma {
			t.Errorf("Expected luma %d, got %d", defaultLuma, luma)
		}
	}

	stats := h.platform.Stats()
	if stats.Parameters.PreviewSize != (camera.Size{Width: 64, Height: 48}) {
		t.Errorf("Expected preview size 64x48, got %s", stats.Parameters.PreviewSize)
	}
	if stats.Parameters.PreviewFormat != camera.PixelFormatNV21 {
		t.Errorf("Expected NV21 preview format, got %v", stats.Parameters.PreviewFormat)
	}

	h.stop()
	waitSignal(t, h.rec.closed, "close")
	if h.platform.Stats().Active {
		t.Error("Expected device to be released")
	}
}

func TestBlackFramesAreDropped(t *testing.T) {
	for _, gen := range []camera.Generation{camera.GenerationRequest, camera.GenerationLegacy} {
		t.Run(gen.String(), func(t *testing.T) {
			h := newHarness(t, Options{BlackFrames: 4})
			h.start(gen, camera.BlackFrameFilter{PixelsToCheck: 16, Threshold: 20})
			defer h.stop()

			if luma := h.frame(); luma != defaultLuma {
				t.Errorf("Expected first delivered frame to be lit, got luma %d", luma)
			}
		})
	}
}

func TestBlackFramesPassWithoutFilter(t *testing.T) {
	h := newHarness(t, Options{BlackFrames: 2})
	h.start(camera.GenerationRequest, camera.BlackFrameFilter{Threshold: -1})
	defer h.stop()

	if luma := h.frame(); luma != 0 {
		t.Errorf("Expected a black first frame, got luma %d", luma)
	}
}

func TestOpenErrorFailsSession(t *testing.T) {
	for _, gen := range []camera.Generation{camera.GenerationRequest, camera.GenerationLegacy} {
		t.Run(gen.String(), func(t *testing.T) {
			h := newHarness(t, Options{})
			h.platform.SetOpenError(errors.New("no such camera"))
			h.create(gen, camera.BlackFrameFilter{Threshold: -1})

			if msg := h.failure(); !strings.Contains(msg, "no such camera") {
				t.Errorf("Expected open error in message, got %q", msg)
			}
		})
	}
}

func TestConfigureFailureFailsSession(t *testing.T) {
	h := newHarness(t, Options{})
	h.platform.SetConfigureFailure(true)
	h.create(camera.GenerationRequest, camera.BlackFrameFilter{Threshold: -1})

	if msg := h.failure(); !strings.Contains(msg, "configure") {
		t.Errorf("Expected configure failure, got %q", msg)
	}
}

func TestDisconnect(t *testing.T) {
	for _, gen := range []camera.Generation{camera.GenerationRequest, camera.GenerationLegacy} {
		t.Run(gen.String(), func(t *testing.T) {
			h := newHarness(t, Options{})
			h.start(gen, camera.BlackFrameFilter{Threshold: -1})

			if !h.platform.Disconnect() {
				t.Fatal("Expected an active device")
			}
			waitSignal(t, h.rec.disconnected, "disconnect")
		})
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		gen  camera.Generation
		want string
	}{
		{camera.GenerationRequest, camera.DeviceErrorDescription(camera.DeviceErrorDevice)},
		{camera.GenerationLegacy, "Camera server died!"},
	}

	for _, tt := range tests {
		t.Run(tt.gen.String(), func(t *testing.T) {
			h := newHarness(t, Options{})
			h.start(tt.gen, camera.BlackFrameFilter{Threshold: -1})

			if !h.platform.Fail(camera.DeviceErrorDevice) {
				t.Fatal("Expected an active device")
			}
			select {
			case msg := <-h.rec.errs:
				if msg != tt.want {
					t.Errorf("Expected %q, got %q", tt.want, msg)
				}
			case <-time.After(waitTimeout):
				t.Fatal("Timed out waiting for error")
			}
		})
	}
}

func TestFailCaptureKeepsStreaming(t *testing.T) {
	h := newHarness(t, Options{})
	h.start(camera.GenerationRequest, camera.BlackFrameFilter{Threshold: -1})
	defer h.stop()

	if !h.platform.FailCapture("buffer dropped") {
		t.Fatal("Expected an active request")
	}
	for range 3 {
		h.frame()
	}
	select {
	case msg := <-h.rec.errs:
		t.Errorf("Expected no session error, got %q", msg)
	case <-h.rec.disconnected:
		t.Error("Expected no disconnect")
	default:
	}
	if got := h.platform.Stats().CaptureFailures; got != 1 {
		t.Errorf("Expected one capture failure, got %d", got)
	}
}

func TestNoDeviceToFail(t *testing.T) {
	p := New(Options{})
	if p.Disconnect() || p.Fail(camera.DeviceErrorDevice) || p.FailCapture("x") {
		t.Error("Expected no active device")
	}
}

func TestOpenWhileBusy(t *testing.T) {
	p := New(Options{})
	dev, err := p.Open(0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := p.Open(0); !errors.Is(err, ErrInUse) {
		t.Errorf("Expected ErrInUse, got %v", err)
	}
	dev.Release()
	if _, err := p.Open(0); err != nil {
		t.Errorf("Expected reopen to succeed, got %v", err)
	}
}
