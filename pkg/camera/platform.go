package camera

import "github.com/go-gl/mathgl/mgl32"

// Platform contracts consumed by the drivers. Callbacks may arrive on any
// goroutine; drivers move them onto the session Looper.

// Surface is an output the device renders into.
type Surface interface {
	Release()
}

// DeviceManager opens devices of the request generation.
type DeviceManager interface {
	OpenDevice(id string, cb DeviceStateCallback) error
}

// DeviceStateCallback receives device lifecycle notifications.
type DeviceStateCallback interface {
	OnOpened(dev Device)
	OnDisconnected(dev Device)
	OnError(dev Device, code int)
	OnClosed(dev Device)
}

// Device is an open request-generation device.
type Device interface {
	CreateCaptureSession(outputs []Surface, cb SessionStateCallback) error
	Close()
}

// SessionStateCallback receives configuration results.
type SessionStateCallback interface {
	OnConfigured(s DeviceSession)
	OnConfigureFailed(s DeviceSession)
}

// DeviceSession is a configured request-generation capture session.
type DeviceSession interface {
	SetRepeatingRequest(req CaptureRequest, targets []Surface, cb CaptureCallback) error
	Capture(req CaptureRequest, targets []Surface, cb CaptureCallback) error
	Close()
}

// CaptureCallback receives per-request results. A failed request does not
// end the session.
type CaptureCallback interface {
	OnCaptureFailed(reason string)
}

// TextureFrame is a frame rendered into a texture by the frame source.
type TextureFrame struct {
	TextureID   int
	Width       int
	Height      int
	Transform   mgl32.Mat4
	TimestampNs int64
}

// FrameSource owns the texture the device renders into.
type FrameSource interface {
	Surface(width, height int) Surface
	StartListening(fn func(TextureFrame))
	StopListening()
	ReturnFrame(textureID int)
	ToI420(buf *TextureBuffer) (I420Buffer, error)
}

// LegacyProvider opens devices of the legacy generation.
type LegacyProvider interface {
	Open(index int) (LegacyDevice, error)
}

// LegacyParameters are the settings of a legacy device.
type LegacyParameters struct {
	PreviewSize        Size
	PreviewFormat      PixelFormat
	FpsRange           FramerateRange
	VideoStabilization bool
	FocusMode          FocusMode
	FlashMode          FlashMode
	FocusAreas         []MeteringRectangle
}

// LegacyDevice is an open legacy-generation device. Its calls are
// synchronous; preview and error callbacks arrive asynchronously.
type LegacyDevice interface {
	SetParameters(p LegacyParameters) error
	SetErrorCallback(fn func(code int))
	SetPreviewCallback(fn func(data []byte))
	AddCallbackBuffer(buf []byte)
	StartPreview() error
	StopPreview()
	AutoFocus(fn func(success bool)) error
	Release()
}
