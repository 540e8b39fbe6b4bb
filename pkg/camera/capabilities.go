package camera

import (
	"log/slog"
	"slices"
	"sync"
)

// Characteristics is the raw result of querying a physical camera.
// FpsRanges are in whatever unit the device reports.
type Characteristics struct {
	ID                        string
	Index                     int
	Facing                    Facing
	SensorOrientation         int
	PixelFormat               PixelFormat
	PreviewSizes              []Size
	FpsRanges                 []FramerateRange
	AutofocusModes            []FocusMode
	OpticalStabilizationModes []StabilizationMode
	VideoStabilizationModes   []StabilizationMode
	ActiveArray               Rect
	FocalLengths              []float32
	Apertures                 []float32
}

// Target is the requested capture geometry and minimum frame rate (whole fps).
type Target struct {
	Width  int
	Height int
	MinFps int
}

// Quirks are per-device workarounds selected by the owner.
type Quirks struct {
	// AutofocusFix forces a fixed auto focus mode and enables explicit
	// autofocus triggering.
	AutofocusFix bool
	// ImageStretchFix uses the preview template for devices whose record
	// template produces stretched images.
	ImageStretchFix bool
}

// Capabilities exposes a camera's static properties and lazily negotiates the
// capture format for the current target.
type Capabilities struct {
	id             string
	index          int
	facing         Facing
	orientation    int
	pixelFormat    PixelFormat
	sizes          []Size
	ranges         []FramerateRange // milli-fps
	fpsUnitFactor  int
	autofocusModes []FocusMode
	opticalModes   []StabilizationMode
	videoModes     []StabilizationMode
	activeArray    Rect
	focalLengths   []float32
	apertures      []float32
	quirks         Quirks
	logger         *slog.Logger

	mu       sync.Mutex
	target   Target
	dirty    bool
	computed bool
	bestSize Size
	bestFps  FramerateRange
	format   CaptureFormat
}

// NewCapabilities builds capabilities from a raw query. The capability sets
// are copied and never change afterwards.
func NewCapabilities(ch Characteristics, target Target, quirks Quirks) *Capabilities {
	factor := fpsUnitFactor(ch.FpsRanges)
	ranges := make([]FramerateRange, len(ch.FpsRanges))
	for i, r := range ch.FpsRanges {
		ranges[i] = FramerateRange{Min: r.Min * factor, Max: r.Max * factor}
	}

	return &Capabilities{
		id:             ch.ID,
		index:          ch.Index,
		facing:         ch.Facing,
		orientation:    ch.SensorOrientation,
		pixelFormat:    ch.PixelFormat,
		sizes:          slices.Clone(ch.PreviewSizes),
		ranges:         ranges,
		fpsUnitFactor:  factor,
		autofocusModes: slices.Clone(ch.AutofocusModes),
		opticalModes:   slices.Clone(ch.OpticalStabilizationModes),
		videoModes:     slices.Clone(ch.VideoStabilizationModes),
		activeArray:    ch.ActiveArray,
		focalLengths:   slices.Clone(ch.FocalLengths),
		apertures:      slices.Clone(ch.Apertures),
		quirks:         quirks,
		logger:         slog.Default().With("module", "camera", "camera_id", ch.ID),
		target:         target,
		dirty:          true,
	}
}

// fpsUnitFactor is the multiplier that brings reported ranges to milli-fps.
// Devices reporting whole fps have a first maximum below 1000.
func fpsUnitFactor(ranges []FramerateRange) int {
	if len(ranges) == 0 {
		return 1
	}
	if ranges[0].Max < 1000 {
		return 1000
	}
	return 1
}

// Retarget changes the requested geometry and frame rate. The negotiated
// format is recomputed on the next read.
func (c *Capabilities) Retarget(width, height, minFps int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := Target{Width: width, Height: height, MinFps: minFps}
	if next == c.target {
		return
	}
	c.target = next
	c.dirty = true
}

// Target returns the current requested geometry.
func (c *Capabilities) Target() Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// BestFormat returns the capture format closest to the target. ok is false
// when the device reports no sizes or no frame-rate ranges.
func (c *Capabilities) BestFormat() (CaptureFormat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	return c.format, c.computed
}

// BestSize returns the supported size closest to the target.
func (c *Capabilities) BestSize() (Size, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	return c.bestSize, c.computed
}

// BestFramerateRange returns the negotiated range in the units the device
// reported, suitable for an auto-exposure target.
func (c *Capabilities) BestFramerateRange() (FramerateRange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh()
	if !c.computed {
		return FramerateRange{}, false
	}
	return FramerateRange{
		Min: c.bestFps.Min / c.fpsUnitFactor,
		Max: c.bestFps.Max / c.fpsUnitFactor,
	}, true
}

// refresh recomputes derived fields when the target changed. Caller holds mu.
func (c *Capabilities) refresh() {
	if !c.dirty {
		return
	}
	c.dirty = false
	c.computed = false

	c.logger.Debug("Negotiating capture format",
		"sizes", c.sizes,
		"fps_ranges", c.ranges,
		"target", c.target)

	format, ok := Negotiate(c.sizes, c.ranges, c.target)
	if !ok {
		c.logger.Warn("No supported capture formats", "sizes", len(c.sizes), "fps_ranges", len(c.ranges))
		return
	}
	format.PixelFormat = c.pixelFormat

	c.bestSize = Size{Width: format.Width, Height: format.Height}
	c.bestFps = format.Framerate
	c.format = format
	c.computed = true

	c.logger.Debug("Using capture format", "format", format.String())
}

// ID is the device identifier used by the request generation.
func (c *Capabilities) ID() string { return c.id }

// Index is the device index used by the legacy generation.
func (c *Capabilities) Index() int { return c.index }

// Facing of the lens.
func (c *Capabilities) Facing() Facing { return c.facing }

// IsFrontFacing reports whether the lens faces the user.
func (c *Capabilities) IsFrontFacing() bool { return c.facing == FacingFront }

// IsBackFacing reports whether the lens faces away from the user.
func (c *Capabilities) IsBackFacing() bool { return c.facing == FacingBack }

// SensorOrientation in degrees.
func (c *Capabilities) SensorOrientation() int { return c.orientation }

// FpsUnitFactor is the multiplier from reported fps units to milli-fps.
func (c *Capabilities) FpsUnitFactor() int { return c.fpsUnitFactor }

// SupportedSizes returns a copy of the preview sizes.
func (c *Capabilities) SupportedSizes() []Size { return slices.Clone(c.sizes) }

// SupportedFramerates returns a copy of the ranges in milli-fps.
func (c *Capabilities) SupportedFramerates() []FramerateRange { return slices.Clone(c.ranges) }

// AutofocusModes returns a copy of the supported focus modes.
func (c *Capabilities) AutofocusModes() []FocusMode { return slices.Clone(c.autofocusModes) }

// OpticalStabilizationModes returns a copy of the supported optical modes.
func (c *Capabilities) OpticalStabilizationModes() []StabilizationMode {
	return slices.Clone(c.opticalModes)
}

// VideoStabilizationModes returns a copy of the supported software modes.
func (c *Capabilities) VideoStabilizationModes() []StabilizationMode {
	return slices.Clone(c.videoModes)
}

// ActiveArray is the active sensor area.
func (c *Capabilities) ActiveArray() Rect { return c.activeArray }

// FocalLengths returns a copy of the available focal lengths.
func (c *Capabilities) FocalLengths() []float32 { return slices.Clone(c.focalLengths) }

// Apertures returns a copy of the available apertures.
func (c *Capabilities) Apertures() []float32 { return slices.Clone(c.apertures) }

// AutofocusFix reports whether the autofocus quirk is enabled.
func (c *Capabilities) AutofocusFix() bool { return c.quirks.AutofocusFix }

// ImageStretchFix reports whether the preview template should be used.
func (c *Capabilities) ImageStretchFix() bool { return c.quirks.ImageStretchFix }
