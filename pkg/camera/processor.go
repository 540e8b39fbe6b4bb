package camera

import (
	"log/slog"
	"time"
)

// BlackFrameFilter configures suppression of the dark frames some devices
// emit while exposure settles. It is active only when Threshold > -1 and
// PixelsToCheck > 0.
type BlackFrameFilter struct {
	PixelsToCheck int
	Threshold     int
}

// Enabled reports whether the filter runs at all.
func (f BlackFrameFilter) Enabled() bool {
	return f.Threshold > -1 && f.PixelsToCheck > 0
}

// frameProcessor orients frames, drops leading black frames and hands
// frames to the consumer. It runs on the session Looper.
type frameProcessor struct {
	gen             Generation
	caps            *Capabilities
	displayRotation func() Rotation
	filter          BlackFrameFilter
	events          Events
	metrics         Metrics
	logger          *slog.Logger

	filtering  bool
	firstFrame bool
	startedAt  time.Time
}

// reset prepares the processor for a new run.
func (p *frameProcessor) reset(startedAt time.Time) {
	p.filtering = p.filter.Enabled()
	p.startedAt = startedAt
}

func (p *frameProcessor) process(raw RawFrame) {
	buf := raw.Buffer

	if p.filtering {
		black, err := p.isBlack(buf)
		switch {
		case err != nil:
			p.logger.Debug("Black frame check failed", "error", err)
		case black:
			p.metrics.BlackFrameDropped(p.gen)
			buf.Release()
			return
		default:
			p.filtering = false
		}
	}

	rotation := p.rotation()

	if tb, ok := buf.(TransformedBuffer); ok {
		m := tb.Transform()
		changed := false
		// Only the texture path is mirrored; byte-buffer frames arrive as
		// the sensor sees them.
		if _, texture := buf.(*TextureBuffer); texture && p.caps.IsFrontFacing() {
			m = MirrorTransform(m)
			changed = true
		}
		if p.gen == GenerationRequest && p.caps.SensorOrientation() != 0 {
			// Orientation is reported through the frame rotation instead.
			m = RotateTransform(m, -p.caps.SensorOrientation())
			changed = true
		}
		if changed {
			buf = tb.WithTransform(m)
		}
	}

	if !p.firstFrame {
		p.firstFrame = true
		p.metrics.StartDuration(p.gen, time.Since(p.startedAt))
	}

	frame := Frame{Buffer: buf, Rotation: rotation, TimestampNs: raw.TimestampNs}
	p.events.OnFrameCaptured(frame)
	p.metrics.FrameDelivered(p.gen)
	frame.Release()
}

// rotation is the clockwise rotation the consumer applies for upright output.
func (p *frameProcessor) rotation() int {
	deviceRotation := 0
	if p.displayRotation != nil {
		deviceRotation = p.displayRotation().Degrees()
	}
	if p.caps.IsFrontFacing() {
		deviceRotation = 360 - deviceRotation
	}
	return (p.caps.SensorOrientation() + deviceRotation) % 360
}

// isBlack samples exactly PixelsToCheck luma values spread evenly over the
// luma plane. A frame without luma data is never black.
func (p *frameProcessor) isBlack(buf Buffer) (bool, error) {
	i420, err := buf.ToI420()
	if err != nil {
		return false, err
	}
	defer i420.Release()

	data := i420.DataY()
	total := min(i420.StrideY()*i420.Height(), len(data))
	if total == 0 {
		return false, nil
	}
	step := max(total/p.filter.PixelsToCheck, 1)
	for i := range p.filter.PixelsToCheck {
		idx := i * step
		if idx >= total {
			break
		}
		if int(data[idx]) > p.filter.Threshold {
			return false, nil
		}
	}
	return true, nil
}
