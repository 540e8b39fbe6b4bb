package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/camsession/pkg/camera"
)

// Profile describes one camera: the answer to a capability query, the
// driver generation to use, device quirks, the requested geometry and the
// warm-up black-frame filter.
type Profile struct {
	Camera      CameraSection      `toml:"camera"`
	Target      TargetSection      `toml:"target"`
	BlackFrames BlackFramesSection `toml:"black_frames"`
}

// CameraSection is the [camera] table.
type CameraSection struct {
	ID                string          `toml:"id"`
	Index             int             `toml:"index"`
	Facing            string          `toml:"facing"`
	SensorOrientation int             `toml:"sensor_orientation"`
	Generation        string          `toml:"generation"`
	Capabilities      CapabilitiesDef `toml:"capabilities"`
	Quirks            QuirksSection   `toml:"quirks"`
}

// CapabilitiesDef is the [camera.capabilities] table. Frame-rate ranges are
// in the device's own unit, whole fps or milli-fps.
type CapabilitiesDef struct {
	PreviewSizes         []string  `toml:"preview_sizes"`
	FpsRanges            [][]int   `toml:"fps_ranges"`
	AutofocusModes       []string  `toml:"autofocus_modes"`
	OpticalStabilization []string  `toml:"optical_stabilization"`
	VideoStabilization   []string  `toml:"video_stabilization"`
	ActiveArray          []int     `toml:"active_array"`
	FocalLengths         []float32 `toml:"focal_lengths"`
	Apertures            []float32 `toml:"apertures"`
}

// QuirksSection is the [camera.quirks] table.
type QuirksSection struct {
	AutofocusFix    bool `toml:"autofocus_fix"`
	ImageStretchFix bool `toml:"image_stretch_fix"`
}

// TargetSection is the [target] table.
type TargetSection struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	Fps    int `toml:"fps"`
}

// BlackFramesSection is the [black_frames] table. The filter is off with
// the defaults.
type BlackFramesSection struct {
	PixelsToCheck int `toml:"pixels_to_check"`
	Threshold     int `toml:"threshold"`
}

// DefaultProfile returns a back-facing 720p30 camera on the request generation.
func DefaultProfile() Profile {
	return Profile{
		Camera: CameraSection{
			ID:         "0",
			Facing:     "back",
			Generation: "request",
			Capabilities: CapabilitiesDef{
				PreviewSizes:         []string{"640x480", "1280x720", "1920x1080"},
				FpsRanges:            [][]int{{15, 30}, {30, 30}},
				AutofocusModes:       []string{"auto", "continuous-video"},
				OpticalStabilization: []string{"off"},
				VideoStabilization:   []string{"off", "on"},
				ActiveArray:          []int{0, 0, 4000, 3000},
			},
		},
		Target:      TargetSection{Width: 1280, Height: 720, Fps: 30},
		BlackFrames: BlackFramesSection{PixelsToCheck: 0, Threshold: -1},
	}
}

// LoadProfile reads and validates a camera profile. Keys missing from the
// file keep the values of DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that every field converts.
func (p Profile) Validate() error {
	var errs []error
	if _, err := p.Characteristics(); err != nil {
		errs = append(errs, err)
	}
	if _, err := p.GenerationValue(); err != nil {
		errs = append(errs, err)
	}
	if p.Target.Width <= 0 || p.Target.Height <= 0 {
		errs = append(errs, fmt.Errorf("target size %dx%d must be positive", p.Target.Width, p.Target.Height))
	}
	if p.Target.Fps <= 0 {
		errs = append(errs, fmt.Errorf("target fps %d must be positive", p.Target.Fps))
	}
	return errors.Join(errs...)
}

// Characteristics converts the camera section into a capability query result.
func (p Profile) Characteristics() (camera.Characteristics, error) {
	c := p.Camera
	facing, err := ParseFacing(c.Facing)
	if err != nil {
		return camera.Characteristics{}, err
	}
	switch c.SensorOrientation {
	case 0, 90, 180, 270:
	default:
		return camera.Characteristics{}, fmt.Errorf("sensor_orientation %d is not a multiple of 90", c.SensorOrientation)
	}

	sizes := make([]camera.Size, 0, len(c.Capabilities.PreviewSizes))
	for _, s := range c.Capabilities.PreviewSizes {
		size, err := ParseSize(s)
		if err != nil {
			return camera.Characteristics{}, err
		}
		sizes = append(sizes, size)
	}

	ranges := make([]camera.FramerateRange, 0, len(c.Capabilities.FpsRanges))
	for _, r := range c.Capabilities.FpsRanges {
		if len(r) != 2 || r[0] > r[1] || r[0] < 0 {
			return camera.Characteristics{}, fmt.Errorf("fps range %v must be [min, max]", r)
		}
		ranges = append(ranges, camera.FramerateRange{Min: r[0], Max: r[1]})
	}

	focus := make([]camera.FocusMode, 0, len(c.Capabilities.AutofocusModes))
	for _, m := range c.Capabilities.AutofocusModes {
		mode, err := ParseFocusMode(m)
		if err != nil {
			return camera.Characteristics{}, err
		}
		focus = append(focus, mode)
	}

	optical, err := parseStabilizationModes(c.Capabilities.OpticalStabilization)
	if err != nil {
		return camera.Characteristics{}, err
	}
	video, err := parseStabilizationModes(c.Capabilities.VideoStabilization)
	if err != nil {
		return camera.Characteristics{}, err
	}

	var active camera.Rect
	switch len(c.Capabilities.ActiveArray) {
	case 0:
	case 4:
		a := c.Capabilities.ActiveArray
		active = camera.Rect{Left: a[0], Top: a[1], Right: a[2], Bottom: a[3]}
	default:
		return camera.Characteristics{}, fmt.Errorf("active_array must be [left, top, right, bottom]")
	}

	gen, err := p.GenerationValue()
	if err != nil {
		return camera.Characteristics{}, err
	}
	pixelFormat := camera.PixelFormatTexture
	if gen == camera.GenerationLegacy {
		pixelFormat = camera.PixelFormatNV21
	}

	return camera.Characteristics{
		ID:                        c.ID,
		Index:                     c.Index,
		Facing:                    facing,
		SensorOrientation:         c.SensorOrientation,
		PixelFormat:               pixelFormat,
		PreviewSizes:              sizes,
		FpsRanges:                 ranges,
		AutofocusModes:            focus,
		OpticalStabilizationModes: optical,
		VideoStabilizationModes:   video,
		ActiveArray:               active,
		FocalLengths:              c.Capabilities.FocalLengths,
		Apertures:                 c.Capabilities.Apertures,
	}, nil
}

// GenerationValue parses the configured driver generation.
func (p Profile) GenerationValue() (camera.Generation, error) {
	switch strings.ToLower(p.Camera.Generation) {
	case "request", "":
		return camera.GenerationRequest, nil
	case "legacy":
		return camera.GenerationLegacy, nil
	default:
		return 0, fmt.Errorf("unknown generation %q", p.Camera.Generation)
	}
}

// TargetValue is the requested capture geometry.
func (p Profile) TargetValue() camera.Target {
	return camera.Target{Width: p.Target.Width, Height: p.Target.Height, MinFps: p.Target.Fps}
}

// QuirksValue returns the device quirks.
func (p Profile) QuirksValue() camera.Quirks {
	return camera.Quirks{
		AutofocusFix:    p.Camera.Quirks.AutofocusFix,
		ImageStretchFix: p.Camera.Quirks.ImageStretchFix,
	}
}

// BlackFrameFilter returns the warm-up filter settings.
func (p Profile) BlackFrameFilter() camera.BlackFrameFilter {
	return camera.BlackFrameFilter{
		PixelsToCheck: p.BlackFrames.PixelsToCheck,
		Threshold:     p.BlackFrames.Threshold,
	}
}

// ParseSize parses "WIDTHxHEIGHT".
func ParseSize(s string) (camera.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return camera.Size{}, fmt.Errorf("size %q must be WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return camera.Size{}, fmt.Errorf("size %q has an invalid width", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return camera.Size{}, fmt.Errorf("size %q has an invalid height", s)
	}
	return camera.Size{Width: width, Height: height}, nil
}

// ParseFacing parses "front", "back" or "external".
func ParseFacing(s string) (camera.Facing, error) {
	switch strings.ToLower(s) {
	case "back", "":
		return camera.FacingBack, nil
	case "front":
		return camera.FacingFront, nil
	case "external":
		return camera.FacingExternal, nil
	default:
		return 0, fmt.Errorf("unknown facing %q", s)
	}
}

// ParseFocusMode parses a focus mode name as printed by camera.FocusMode.
func ParseFocusMode(s string) (camera.FocusMode, error) {
	for _, m := range []camera.FocusMode{
		camera.FocusOff,
		camera.FocusAuto,
		camera.FocusMacro,
		camera.FocusContinuousVideo,
		camera.FocusContinuousPicture,
		camera.FocusEDOF,
	} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return camera.FocusUnset, fmt.Errorf("unknown autofocus mode %q", s)
}

func parseStabilizationModes(names []string) ([]camera.StabilizationMode, error) {
	modes := make([]camera.StabilizationMode, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(name) {
		case "off":
			modes = append(modes, camera.StabilizationOff)
		case "on":
			modes = append(modes, camera.StabilizationOn)
		default:
			return nil, fmt.Errorf("unknown stabilization mode %q", name)
		}
	}
	return modes, nil
}
