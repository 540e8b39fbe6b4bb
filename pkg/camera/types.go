package camera

import "fmt"

// Facing is the direction a lens points relative to the device user.
type Facing int

// Lens facings.
const (
	FacingBack Facing = iota
	FacingFront
	FacingExternal
)

func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	case FacingExternal:
		return "external"
	default:
		return fmt.Sprintf("facing(%d)", int(f))
	}
}

// Generation identifies which platform camera API a driver talks to.
type Generation int

// Driver generations.
const (
	// GenerationLegacy is the synchronous, parameter-based API that streams raw NV21 buffers.
	GenerationLegacy Generation = iota + 1
	// GenerationRequest is the asynchronous, request-based API that streams textures.
	GenerationRequest
)

func (g Generation) String() string {
	switch g {
	case GenerationLegacy:
		return "legacy"
	case GenerationRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Size is a width x height pair in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// FramerateRange is a frame-rate range. Values held by Capabilities are in
// milli-fps (30 fps == 30000).
type FramerateRange struct {
	Min int
	Max int
}

func (r FramerateRange) String() string {
	return fmt.Sprintf("[%d:%d]", r.Min, r.Max)
}

// PixelFormat of the buffers a capture format produces.
type PixelFormat int

// Pixel formats.
const (
	PixelFormatTexture PixelFormat = iota
	PixelFormatNV21
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatNV21:
		return "NV21"
	default:
		return "texture"
	}
}

// bitsPerPixel for formats that are streamed as raw buffers.
func (p PixelFormat) bitsPerPixel() int {
	switch p {
	case PixelFormatNV21:
		return 12
	default:
		return 0
	}
}

// CaptureFormat is the negotiated format used for the duration of one session.
type CaptureFormat struct {
	Width       int
	Height      int
	Framerate   FramerateRange
	PixelFormat PixelFormat
}

// FrameSize returns the size in bytes of one raw frame, or 0 for texture formats.
func (f CaptureFormat) FrameSize() int {
	return f.Width * f.Height * f.PixelFormat.bitsPerPixel() / 8
}

func (f CaptureFormat) String() string {
	return fmt.Sprintf("%dx%d@%s", f.Width, f.Height, f.Framerate)
}

// Rect is an axis-aligned rectangle in sensor coordinates.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width of the rectangle.
func (r Rect) Width() int { return r.Right - r.Left }

// Height of the rectangle.
func (r Rect) Height() int { return r.Bottom - r.Top }

// CenterX is the horizontal centre, rounded down.
func (r Rect) CenterX() int { return (r.Left + r.Right) >> 1 }

// CenterY is the vertical centre, rounded down.
func (r Rect) CenterY() int { return (r.Top + r.Bottom) >> 1 }

// MeteringWeightMax is the highest weight a metering region can carry.
const MeteringWeightMax = 1000

// MeteringRectangle is a weighted region used for focus and exposure metering.
type MeteringRectangle struct {
	X      int
	Y      int
	Width  int
	Height int
	Weight int
}

// StabilizationMode values for both optical and video stabilization.
// The zero value means the request leaves the control untouched.
type StabilizationMode int

// Stabilization modes.
const (
	StabilizationUnset StabilizationMode = iota
	StabilizationOff
	StabilizationOn
)

func (m StabilizationMode) String() string {
	switch m {
	case StabilizationOff:
		return "off"
	case StabilizationOn:
		return "on"
	default:
		return "unset"
	}
}

// FocusMode is an autofocus mode. The zero value leaves focus untouched.
type FocusMode int

// Focus modes.
const (
	FocusUnset FocusMode = iota
	FocusOff
	FocusAuto
	FocusMacro
	FocusContinuousVideo
	FocusContinuousPicture
	FocusEDOF
)

func (m FocusMode) String() string {
	switch m {
	case FocusOff:
		return "off"
	case FocusAuto:
		return "auto"
	case FocusMacro:
		return "macro"
	case FocusContinuousVideo:
		return "continuous-video"
	case FocusContinuousPicture:
		return "continuous-picture"
	case FocusEDOF:
		return "edof"
	default:
		return "unset"
	}
}

// FocusTrigger controls a one-shot autofocus scan.
type FocusTrigger int

// Focus triggers.
const (
	FocusTriggerUnset FocusTrigger = iota
	FocusTriggerIdle
	FocusTriggerStart
)

// FlashMode of the request.
type FlashMode int

// Flash modes.
const (
	FlashOff FlashMode = iota
	FlashTorch
)

// Template is the base request template the device fills defaults from.
type Template int

// Request templates.
const (
	TemplateRecord Template = iota
	TemplatePreview
)

// Rotation is the display rotation as reported by the window system, in
// quarter turns.
type Rotation int

// Display rotations.
const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Degrees converts the rotation to degrees. Unknown values map to 0.
func (r Rotation) Degrees() int {
	switch r {
	case Rotation90:
		return 90
	case Rotation180:
		return 180
	case Rotation270:
		return 270
	default:
		return 0
	}
}

// RotationFromDegrees is the inverse of Degrees. ok is false unless degrees
// is one of 0, 90, 180 or 270.
func RotationFromDegrees(degrees int) (Rotation, bool) {
	switch degrees {
	case 0:
		return Rotation0, true
	case 90:
		return Rotation90, true
	case 180:
		return Rotation180, true
	case 270:
		return Rotation270, true
	default:
		return Rotation0, false
	}
}

// FailureKind distinguishes why a session could not be created.
type FailureKind int

// Failure kinds.
const (
	FailureError FailureKind = iota
	FailureDisconnected
)

func (k FailureKind) String() string {
	if k == FailureDisconnected {
		return "disconnected"
	}
	return "error"
}
