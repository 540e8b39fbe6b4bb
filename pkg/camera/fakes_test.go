package camera

import (
	"bytes"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestLooper(t *testing.T) *Looper {
	t.Helper()
	l := NewLooper("test")
	t.Cleanup(func() {
		l.Quit()
		<-l.Done()
	})
	return l
}

// flush lets chains of posted callbacks settle.
func flush(l *Looper) {
	for range 10 {
		l.Invoke(func() {})
	}
}

func testCharacteristics(facing Facing, orientation int) Characteristics {
	return Characteristics{
		ID:                        "0",
		Index:                     0,
		Facing:                    facing,
		SensorOrientation:         orientation,
		PreviewSizes:              []Size{{640, 480}, {1280, 720}, {1920, 1080}},
		FpsRanges:                 []FramerateRange{{15, 30}, {30, 30}},
		AutofocusModes:            []FocusMode{FocusAuto, FocusContinuousVideo},
		OpticalStabilizationModes: []StabilizationMode{StabilizationOff, StabilizationOn},
		VideoStabilizationModes:   []StabilizationMode{StabilizationOff, StabilizationOn},
		ActiveArray:               Rect{Left: 0, Top: 0, Right: 4000, Bottom: 3000},
	}
}

// Request generation fakes. Callbacks fire synchronously; the driver is
// responsible for moving them onto the loop.

type fakeSurface struct {
	mu       sync.Mutex
	released int
}

func (s *fakeSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
}

type fakeDeviceSession struct {
	mu         sync.Mutex
	repeating  []CaptureRequest
	captures   []CaptureRequest
	targets    int
	repeatErr  error
	captureErr error
	closed     int
	callback   CaptureCallback
}

func (s *fakeDeviceSession) SetRepeatingRequest(req CaptureRequest, targets []Surface, cb CaptureCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repeatErr != nil {
		return s.repeatErr
	}
	s.callback = cb
	s.repeating = append(s.repeating, req)
	s.targets = len(targets)
	return nil
}

func (s *fakeDeviceSession) Capture(req CaptureRequest, _ []Surface, _ CaptureCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureErr != nil {
		return s.captureErr
	}
	s.captures = append(s.captures, req)
	return nil
}

func (s *fakeDeviceSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeDeviceSession) repeatingCallback() CaptureCallback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback
}

func (s *fakeDeviceSession) lastRepeating() CaptureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeating[len(s.repeating)-1]
}

func (s *fakeDeviceSession) repeatingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.repeating)
}

type fakeDevice struct {
	manager       *fakeManager
	session       *fakeDeviceSession
	configureFail bool
	outputs       int
	closed        int
}

func (d *fakeDevice) CreateCaptureSession(outputs []Surface, cb SessionStateCallback) error {
	d.outputs = len(outputs)
	if d.configureFail {
		cb.OnConfigureFailed(d.session)
		return nil
	}
	cb.OnConfigured(d.session)
	return nil
}

func (d *fakeDevice) Close() {
	d.closed++
	d.manager.cb.OnClosed(d)
}

type fakeManager struct {
	dev       *fakeDevice
	cb        DeviceStateCallback
	openErr   error
	errorCode int
	hold      bool
	opened    int
}

func newFakeManager() *fakeManager {
	m := &fakeManager{}
	m.dev = &fakeDevice{manager: m, session: &fakeDeviceSession{}}
	return m
}

func (m *fakeManager) OpenDevice(_ string, cb DeviceStateCallback) error {
	if m.openErr != nil {
		return m.openErr
	}
	m.opened++
	m.cb = cb
	switch {
	case m.errorCode != 0:
		cb.OnError(m.dev, m.errorCode)
	case m.hold:
	default:
		cb.OnOpened(m.dev)
	}
	return nil
}

type fakeFrameSource struct {
	mu       sync.Mutex
	listener func(TextureFrame)
	returned map[int]int
	luma     map[int][]byte
	stopped  int
}

func newFakeFrameSource() *fakeFrameSource {
	return &fakeFrameSource{
		returned: make(map[int]int),
		luma:     make(map[int][]byte),
	}
}

func (f *fakeFrameSource) Surface(int, int) Surface { return &fakeSurface{} }

func (f *fakeFrameSource) StartListening(fn func(TextureFrame)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = fn
}

func (f *fakeFrameSource) StopListening() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = nil
	f.stopped++
}

func (f *fakeFrameSource) ReturnFrame(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returned[id]++
}

func (f *fakeFrameSource) ToI420(buf *TextureBuffer) (I420Buffer, error) {
	f.mu.Lock()
	y := f.luma[buf.TextureID()]
	f.mu.Unlock()
	if y == nil {
		y = bytes.Repeat([]byte{128}, buf.Width()*buf.Height())
	}
	return NewI420Buffer(buf.Width(), buf.Height(), y, buf.Width(), nil), nil
}

func (f *fakeFrameSource) currentListener() func(TextureFrame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listener
}

func (f *fakeFrameSource) emit(id int) {
	if fn := f.currentListener(); fn != nil {
		fn(TextureFrame{TextureID: id, Width: 64, Height: 48, Transform: mgl32.Ident4(), TimestampNs: int64(id)})
	}
}

func (f *fakeFrameSource) returnedCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.returned[id]
}

// recorder implements both CreateCallback and Events.

type failure struct {
	kind    FailureKind
	message string
}

type delivered struct {
	rotation  int
	transform mgl32.Mat4
	width     int
}

type recording struct {
	session      *Session
	ready        int
	failures     []failure
	opening      int
	errors       []string
	disconnected int
	closed       int
	frames       []delivered
}

type recorder struct {
	mu sync.Mutex
	recording
}

func (r *recorder) OnSessionReady(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = s
	r.ready++
}

func (r *recorder) OnSessionFailed(kind FailureKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failure{kind, message})
}

func (r *recorder) OnOpening() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opening++
}

func (r *recorder) OnFrameCaptured(frame Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := delivered{rotation: frame.Rotation, width: frame.Buffer.Width()}
	if tb, ok := frame.Buffer.(TransformedBuffer); ok {
		d.transform = tb.Transform()
	}
	r.frames = append(r.frames, d)
}

func (r *recorder) OnError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recorder) OnDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected++
}

func (r *recorder) OnClosed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
}

func (r *recorder) eventCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opening + len(r.errors) + r.disconnected + r.closed + len(r.frames)
}

func (r *recorder) snapshot() recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.recording
	snap.failures = append([]failure(nil), r.failures...)
	snap.errors = append([]string(nil), r.errors...)
	snap.frames = append([]delivered(nil), r.frames...)
	return snap
}

type countingMetrics struct {
	mu          sync.Mutex
	starts      int
	stops       int
	resolutions []Size
	blackFrames int
	frames      int
}

func (m *countingMetrics) StartDuration(Generation, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
}

func (m *countingMetrics) StopDuration(Generation, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *countingMetrics) Resolution(_ Generation, s Size) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, s)
}

func (m *countingMetrics) BlackFrameDropped(Generation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blackFrames++
}

func (m *countingMetrics) FrameDelivered(Generation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
}
