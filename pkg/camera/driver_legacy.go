package camera

import (
	"fmt"
	"time"
)

// numCaptureBuffers is how many preview buffers circulate between the
// device and the session.
const numCaptureBuffers = 3

// LegacyDriver talks to the synchronous, parameter-based camera API and
// streams NV21 buffers.
type LegacyDriver struct {
	provider LegacyProvider

	dc         DriverContext
	device     LegacyDevice
	params     LegacyParameters
	previewing bool
	closed     bool
}

// NewLegacyDriver creates a driver backed by provider.
func NewLegacyDriver(provider LegacyProvider) *LegacyDriver {
	return &LegacyDriver{provider: provider}
}

// Generation reports GenerationLegacy.
func (d *LegacyDriver) Generation() Generation { return GenerationLegacy }

// Open opens the device synchronously and reports DeviceOpened on the loop.
func (d *LegacyDriver) Open(dc DriverContext) error {
	d.dc = dc
	dev, err := d.provider.Open(dc.Caps.Index())
	if err != nil {
		return newError(ErrCodeOpenFailed, "Failed to open camera: ", err)
	}
	d.device = dev
	dev.SetErrorCallback(d.onError)

	if !dc.post(func() {
		if d.closed {
			return
		}
		dc.Listener.DeviceOpened()
	}) {
		dev.Release()
		d.device = nil
		return newError(ErrCodeOpenFailed, "session looper has quit", nil)
	}
	return nil
}

// Configure applies the preview format and hands the callback buffers to
// the device.
func (d *LegacyDriver) Configure() error {
	if d.device == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}

	f := d.dc.Format
	params := d.params
	params.PreviewSize = Size{Width: f.Width, Height: f.Height}
	params.PreviewFormat = PixelFormatNV21
	if err := d.device.SetParameters(params); err != nil {
		return newError(ErrCodeConfigureFailed, "Failed to set camera parameters. ", err)
	}
	d.params = params

	frameSize := f.FrameSize()
	for range numCaptureBuffers {
		d.device.AddCallbackBuffer(make([]byte, frameSize))
	}
	d.device.SetPreviewCallback(d.onPreviewFrame)

	d.dc.post(func() {
		if d.closed {
			return
		}
		d.dc.Listener.Configured()
	})
	return nil
}

// Submit folds the request into the device parameters.
func (d *LegacyDriver) Submit(req CaptureRequest) error {
	if d.device == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}

	params := d.params
	params.FpsRange = req.AETargetFpsRange
	params.VideoStabilization = req.VideoStabilization == StabilizationOn
	params.FocusMode = req.FocusMode
	params.FlashMode = req.Flash
	params.FocusAreas = req.FocusRegions
	if err := d.device.SetParameters(params); err != nil {
		return newError(ErrCodeDeviceError, "Failed to set camera parameters. ", err)
	}
	d.params = params
	return nil
}

// Capture runs a one-shot autofocus scan when the request starts a focus
// trigger. Other single requests are applied as parameters.
func (d *LegacyDriver) Capture(req CaptureRequest) error {
	if d.device == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}
	if req.FocusTrigger != FocusTriggerStart {
		return d.Submit(req)
	}

	if len(req.FocusRegions) > 0 {
		params := d.params
		params.FocusMode = req.FocusMode
		params.FocusAreas = req.FocusRegions
		if err := d.device.SetParameters(params); err != nil {
			return newError(ErrCodeDeviceError, "Failed to set focus areas. ", err)
		}
		d.params = params
	}

	err := d.device.AutoFocus(func(success bool) {
		d.dc.post(func() {
			d.dc.Logger.Debug("Autofocus finished", "success", success)
		})
	})
	if err != nil {
		return newError(ErrCodeDeviceError, "Failed to start autofocus. ", err)
	}
	return nil
}

// StartFrames starts the preview.
func (d *LegacyDriver) StartFrames() error {
	if d.device == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}
	if d.previewing {
		return nil
	}
	if err := d.device.StartPreview(); err != nil {
		return newError(ErrCodeDeviceError, "Failed to start preview. ", err)
	}
	d.previewing = true
	return nil
}

// Close stops the preview and releases the device. Closed is reported on
// the loop right after.
func (d *LegacyDriver) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.device == nil {
		return
	}

	if d.previewing {
		d.device.StopPreview()
		d.previewing = false
	}
	d.device.SetPreviewCallback(nil)
	d.device.Release()
	d.device = nil

	d.dc.post(d.dc.Listener.Closed)
}

// IsOpen reports whether the device handle is held.
func (d *LegacyDriver) IsOpen() bool {
	return d.device != nil && !d.closed
}

func (d *LegacyDriver) onPreviewFrame(data []byte) {
	timestamp := time.Now().UnixNano()
	d.dc.post(func() {
		if d.closed {
			return
		}
		f := d.dc.Format
		buf := NewNV21Buffer(data, f.Width, f.Height, func() { d.recycle(data) })
		d.dc.Listener.Frame(RawFrame{Buffer: buf, TimestampNs: timestamp})
	})
}

// recycle hands a preview buffer back to the device while it is still open.
func (d *LegacyDriver) recycle(data []byte) {
	give := func() {
		if d.closed || d.device == nil {
			return
		}
		d.device.AddCallbackBuffer(data)
	}
	if d.dc.Loop.IsCurrent() {
		give()
		return
	}
	d.dc.post(give)
}

func (d *LegacyDriver) onError(code int) {
	d.dc.post(func() {
		if d.closed {
			return
		}
		switch code {
		case LegacyErrorEvicted:
			d.dc.Listener.Disconnected()
		case LegacyErrorServerDied:
			d.dc.Listener.Error(newError(ErrCodeDeviceError, "Camera server died!", nil))
		default:
			d.dc.Listener.Error(newError(ErrCodeDeviceError, fmt.Sprintf("Camera error: %d", code), nil))
		}
	})
}
