package camera

import "log/slog"

// Driver is one camera API generation. Drivers report asynchronous results
// to their DriverListener, always on the session Looper.
//
// The session calls Open once, Configure after DeviceOpened, Submit and
// StartFrames after Configured, and Close at most once per logical stop
// (Close must tolerate repeats).
type Driver interface {
	Generation() Generation
	// Open starts opening the device. An error means the attempt failed
	// synchronously and no listener callback will follow.
	Open(dc DriverContext) error
	// Configure builds the output surfaces and starts configuring.
	Configure() error
	// Submit replaces the repeating request.
	Submit(req CaptureRequest) error
	// Capture issues a single request on top of the repeating one.
	Capture(req CaptureRequest) error
	// StartFrames begins delivering frames to the listener.
	StartFrames() error
	// Close releases surfaces, the configured session and the device.
	Close()
	// IsOpen reports whether a device handle is held.
	IsOpen() bool
}

// DriverContext is what a driver needs from the session that owns it.
type DriverContext struct {
	Loop     *Looper
	Caps     *Capabilities
	Format   CaptureFormat
	Listener DriverListener
	Logger   *slog.Logger
}

// DriverListener receives driver results on the session Looper.
type DriverListener interface {
	DeviceOpened()
	Configured()
	ConfigureFailed(err error)
	Disconnected()
	Error(err error)
	Closed()
	Frame(frame RawFrame)
}

// RawFrame is a device frame before orientation correction.
type RawFrame struct {
	Buffer      Buffer
	TimestampNs int64
}

// post marshals fn onto the loop; returns false when the loop has quit.
func (dc DriverContext) post(fn func()) bool {
	return dc.Loop.Post(fn)
}
