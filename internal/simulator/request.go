package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/smazurov/camsession/pkg/camera"
)

// surface is the texture the frame source renders into.
type surface struct {
	p      *Platform
	width  int
	height int
}

func (s *surface) Release() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.surface == s {
		s.p.surface = nil
	}
}

// Surface returns the frame source output for the given size.
func (p *Platform) Surface(width, height int) camera.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &surface{p: p, width: width, height: height}
	p.surface = s
	return s
}

// StartListening installs the frame listener.
func (p *Platform) StartListening(fn func(camera.TextureFrame)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
}

// StopListening removes the frame listener.
func (p *Platform) StopListening() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = nil
}

// ReturnFrame hands a texture back to the source.
func (p *Platform) ReturnFrame(textureID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.textures, textureID)
}

// ToI420 reads a texture back into a luma plane.
func (p *Platform) ToI420(buf *camera.TextureBuffer) (camera.I420Buffer, error) {
	p.mu.Lock()
	tex, ok := p.textures[buf.TextureID()]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("texture %d was already returned", buf.TextureID())
	}

	data := make([]byte, tex.width*tex.height)
	for i := range data {
		data[i] = tex.luma
	}
	return camera.NewI420Buffer(tex.width, tex.height, data, tex.width, nil), nil
}

// renderTexture produces frame seq into a new texture and hands it to the
// listener. Frames are dropped while the listener holds maxOutstanding
// textures.
func (p *Platform) renderTexture(seq int) {
	p.mu.Lock()
	if p.listener == nil || p.surface == nil {
		p.mu.Unlock()
		return
	}
	if len(p.textures) >= maxOutstanding {
		p.stats.FramesDropped++
		p.mu.Unlock()
		return
	}
	id := p.nextTexture
	p.nextTexture++
	tex := texture{width: p.surface.width, height: p.surface.height, luma: p.lumaFor(seq)}
	p.textures[id] = tex
	p.stats.FramesDelivered++
	listener := p.listener
	p.mu.Unlock()

	listener(camera.TextureFrame{
		TextureID:   id,
		Width:       tex.width,
		Height:      tex.height,
		Transform:   mgl32.Ident4(),
		TimestampNs: time.Now().UnixNano(),
	})
}

// OpenDevice opens the camera for the request generation. OnOpened follows
// asynchronously.
func (p *Platform) OpenDevice(id string, cb camera.DeviceStateCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openErr != nil {
		return p.openErr
	}
	if p.request != nil || p.legacy != nil {
		return ErrInUse
	}

	dev := &requestDevice{p: p, id: id, cb: cb}
	p.request = dev
	p.stats.Opens++
	p.logger.Debug("Device opened", "camera_id", id)
	go cb.OnOpened(dev)
	return nil
}

type requestDevice struct {
	p  *Platform
	id string
	cb camera.DeviceStateCallback

	mu      sync.Mutex
	session *requestSession
	closed  bool
}

func (d *requestDevice) CreateCaptureSession(outputs []camera.Surface, cb camera.SessionStateCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("device %s is closed", d.id)
	}

	d.p.mu.Lock()
	fail := d.p.configureFail
	d.p.stats.Outputs = len(outputs)
	d.p.mu.Unlock()

	s := &requestSession{p: d.p}
	d.session = s
	if fail {
		go cb.OnConfigureFailed(s)
		return nil
	}
	go cb.OnConfigured(s)
	return nil
}

func (d *requestDevice) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	s := d.session
	d.mu.Unlock()

	if s != nil {
		s.Close()
	}

	d.p.mu.Lock()
	if d.p.request == d {
		d.p.request = nil
	}
	d.p.mu.Unlock()

	d.p.logger.Debug("Device closed", "camera_id", d.id)
	go d.cb.OnClosed(d)
}

type requestSession struct {
	p *Platform

	mu       sync.Mutex
	stream   *ticker
	closed   bool
	callback camera.CaptureCallback
}

func (s *requestSession) SetRepeatingRequest(req camera.CaptureRequest, _ []camera.Surface, cb camera.CaptureCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("capture session is closed")
	}

	s.callback = cb
	s.p.mu.Lock()
	s.p.stats.Requests++
	s.p.stats.LastRequest = req
	s.p.mu.Unlock()

	if s.stream == nil {
		s.stream = startTicker(s.p.opts.FrameInterval, s.p.renderTexture)
	}
	return nil
}

func (s *requestSession) Capture(req camera.CaptureRequest, _ []camera.Surface, _ camera.CaptureCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("capture session is closed")
	}

	s.p.mu.Lock()
	s.p.stats.Captures++
	s.p.stats.LastCapture = req
	s.p.mu.Unlock()
	return nil
}

// failCapture reports a failed repeating request. It reports whether a
// request was active.
func (s *requestSession) failCapture(reason string) bool {
	s.mu.Lock()
	cb := s.callback
	closed := s.closed
	s.mu.Unlock()
	if closed || cb == nil {
		return false
	}
	go cb.OnCaptureFailed(reason)
	return true
}

func (s *requestSession) Close() {
	s.mu.Lock()
	s.closed = true
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	stream.halt()
}
