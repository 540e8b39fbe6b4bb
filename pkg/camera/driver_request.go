package camera

// RequestDriver talks to the asynchronous, request-based camera API and
// streams texture frames.
type RequestDriver struct {
	manager DeviceManager
	frames  FrameSource
	extra   []Surface

	dc        DriverContext
	device    Device
	session   DeviceSession
	surface   Surface
	targets   []Surface
	listening bool
	closed    bool
}

// NewRequestDriver creates a driver. extra surfaces (for example a recorder
// input) are added to the configuration and to every request; they remain
// owned by the caller.
func NewRequestDriver(manager DeviceManager, frames FrameSource, extra ...Surface) *RequestDriver {
	return &RequestDriver{
		manager: manager,
		frames:  frames,
		extra:   extra,
	}
}

// Generation reports GenerationRequest.
func (d *RequestDriver) Generation() Generation { return GenerationRequest }

// Open asks the device manager to open the camera.
func (d *RequestDriver) Open(dc DriverContext) error {
	d.dc = dc
	if err := d.manager.OpenDevice(dc.Caps.ID(), &deviceStateCallback{d: d}); err != nil {
		return newError(ErrCodeOpenFailed, "Failed to open camera: ", err)
	}
	return nil
}

// Configure creates the capture session with the frame surface plus extras.
func (d *RequestDriver) Configure() error {
	if d.device == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}

	f := d.dc.Format
	d.surface = d.frames.Surface(f.Width, f.Height)
	d.targets = append([]Surface{d.surface}, d.extra...)
	if err := d.device.CreateCaptureSession(d.targets, &sessionStateCallback{d: d}); err != nil {
		return newError(ErrCodeConfigureFailed, "Failed to create capture session. ", err)
	}
	return nil
}

// Submit replaces the repeating request.
func (d *RequestDriver) Submit(req CaptureRequest) error {
	if d.session == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "capture session is not configured", nil)
	}
	if err := d.session.SetRepeatingRequest(req, d.targets, captureCallback{d: d}); err != nil {
		return newError(ErrCodeDeviceError, "Failed to start capture request. ", err)
	}
	return nil
}

// Capture issues a single request.
func (d *RequestDriver) Capture(req CaptureRequest) error {
	if d.session == nil || d.closed {
		return newError(ErrCodeDeviceAccess, "capture session is not configured", nil)
	}
	if err := d.session.Capture(req, d.targets, captureCallback{d: d}); err != nil {
		return newError(ErrCodeDeviceError, "Failed to capture request. ", err)
	}
	return nil
}

// StartFrames starts listening to the frame source.
func (d *RequestDriver) StartFrames() error {
	if d.closed {
		return newError(ErrCodeDeviceAccess, "camera device is not open", nil)
	}
	if d.listening {
		return nil
	}
	d.frames.StartListening(d.onTexture)
	d.listening = true
	return nil
}

// Close stops frames, then closes the session and device and releases the
// frame surface. The device reports OnClosed once it is gone.
func (d *RequestDriver) Close() {
	if d.closed {
		return
	}
	d.closed = true

	if d.listening {
		d.frames.StopListening()
		d.listening = false
	}
	if d.session != nil {
		d.session.Close()
		d.session = nil
	}
	if d.device != nil {
		d.device.Close()
		d.device = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	d.targets = nil
}

// IsOpen reports whether the device handle is held.
func (d *RequestDriver) IsOpen() bool {
	return d.device != nil && !d.closed
}

func (d *RequestDriver) onTexture(tf TextureFrame) {
	buf := NewTextureBuffer(tf.Width, tf.Height, tf.TextureID, tf.Transform,
		func() { d.frames.ReturnFrame(tf.TextureID) },
		d.frames.ToI420)

	posted := d.dc.post(func() {
		if d.closed {
			buf.Release()
			return
		}
		d.dc.Listener.Frame(RawFrame{Buffer: buf, TimestampNs: tf.TimestampNs})
	})
	if !posted {
		buf.Release()
	}
}

type deviceStateCallback struct {
	d *RequestDriver
}

func (c *deviceStateCallback) OnOpened(dev Device) {
	d := c.d
	if !d.dc.post(func() {
		d.dc.Loop.CheckOnLoop()
		if d.closed {
			dev.Close()
			return
		}
		d.device = dev
		d.dc.Listener.DeviceOpened()
	}) {
		dev.Close()
	}
}

func (c *deviceStateCallback) OnDisconnected(Device) {
	d := c.d
	d.dc.post(func() {
		d.dc.Loop.CheckOnLoop()
		if d.closed {
			return
		}
		d.dc.Listener.Disconnected()
	})
}

func (c *deviceStateCallback) OnError(_ Device, code int) {
	d := c.d
	d.dc.post(func() {
		d.dc.Loop.CheckOnLoop()
		if d.closed {
			return
		}
		d.dc.Listener.Error(newError(ErrCodeDeviceError, DeviceErrorDescription(code), nil))
	})
}

func (c *deviceStateCallback) OnClosed(Device) {
	d := c.d
	d.dc.post(func() {
		d.dc.Loop.CheckOnLoop()
		d.dc.Listener.Closed()
	})
}

type sessionStateCallback struct {
	d *RequestDriver
}

func (c *sessionStateCallback) OnConfigured(s DeviceSession) {
	d := c.d
	if !d.dc.post(func() {
		d.dc.Loop.CheckOnLoop()
		if d.closed {
			s.Close()
			return
		}
		d.session = s
		d.dc.Listener.Configured()
	}) {
		s.Close()
	}
}

func (c *sessionStateCallback) OnConfigureFailed(s DeviceSession) {
	d := c.d
	d.dc.post(func() {
		d.dc.Loop.CheckOnLoop()
		s.Close()
		if d.closed {
			return
		}
		d.dc.Listener.ConfigureFailed(newError(ErrCodeConfigureFailed, "Failed to configure capture session.", nil))
	})
}

type captureCallback struct {
	d *RequestDriver
}

// OnCaptureFailed logs a dropped request. The session keeps running.
func (c captureCallback) OnCaptureFailed(reason string) {
	d := c.d
	d.dc.post(func() {
		if d.closed {
			return
		}
		d.dc.Logger.Debug("Capture failed", "reason", reason)
	})
}
