package simulator

import (
	"fmt"
	"sync"

	"github.com/smazurov/camsession/pkg/camera"
)

// Open opens the camera for the legacy generation.
func (p *Platform) Open(index int) (camera.LegacyDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openErr != nil {
		return nil, p.openErr
	}
	if p.request != nil || p.legacy != nil {
		return nil, ErrInUse
	}

	dev := &legacyDevice{p: p, index: index}
	p.legacy = dev
	p.stats.Opens++
	p.logger.Debug("Legacy device opened", "index", index)
	return dev, nil
}

type legacyDevice struct {
	p     *Platform
	index int

	mu       sync.Mutex
	params   camera.LegacyParameters
	onError  func(code int)
	onFrame  func(data []byte)
	buffers  [][]byte
	stream   *ticker
	released bool
}

func (d *legacyDevice) SetParameters(params camera.LegacyParameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return fmt.Errorf("camera %d is released", d.index)
	}
	if params.PreviewSize.Width <= 0 || params.PreviewSize.Height <= 0 {
		return fmt.Errorf("invalid preview size %s", params.PreviewSize)
	}
	d.params = params

	d.p.mu.Lock()
	d.p.stats.Parameters = params
	d.p.mu.Unlock()
	return nil
}

func (d *legacyDevice) SetErrorCallback(fn func(code int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = fn
}

func (d *legacyDevice) SetPreviewCallback(fn func(data []byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFrame = fn
}

func (d *legacyDevice) AddCallbackBuffer(buf []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.buffers = append(d.buffers, buf)
}

func (d *legacyDevice) StartPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return fmt.Errorf("camera %d is released", d.index)
	}
	if d.stream == nil {
		d.stream = startTicker(d.p.opts.FrameInterval, d.renderPreview)
	}
	return nil
}

func (d *legacyDevice) StopPreview() {
	d.mu.Lock()
	stream := d.stream
	d.stream = nil
	d.mu.Unlock()

	stream.halt()
}

func (d *legacyDevice) AutoFocus(fn func(success bool)) error {
	d.mu.Lock()
	released := d.released
	d.mu.Unlock()
	if released {
		return fmt.Errorf("camera %d is released", d.index)
	}

	d.p.mu.Lock()
	d.p.stats.Autofocus++
	d.p.mu.Unlock()
	go fn(true)
	return nil
}

func (d *legacyDevice) Release() {
	d.StopPreview()

	d.mu.Lock()
	d.released = true
	d.buffers = nil
	d.onFrame = nil
	d.mu.Unlock()

	d.p.mu.Lock()
	if d.p.legacy == d {
		d.p.legacy = nil
	}
	d.p.mu.Unlock()
	d.p.logger.Debug("Legacy device released", "index", d.index)
}

func (d *legacyDevice) raiseError(code int) {
	d.mu.Lock()
	fn := d.onError
	d.mu.Unlock()
	if fn != nil {
		go fn(code)
	}
}

// renderPreview fills the next callback buffer. Without a free buffer the
// frame is dropped.
func (d *legacyDevice) renderPreview(seq int) {
	d.mu.Lock()
	if d.onFrame == nil {
		d.mu.Unlock()
		return
	}
	if len(d.buffers) == 0 {
		d.mu.Unlock()
		d.p.mu.Lock()
		d.p.stats.FramesDropped++
		d.p.mu.Unlock()
		return
	}
	buf := d.buffers[0]
	d.buffers = d.buffers[1:]
	size := d.params.PreviewSize
	fn := d.onFrame
	d.mu.Unlock()

	d.p.mu.Lock()
	luma := d.p.lumaFor(seq)
	d.p.stats.FramesDelivered++
	d.p.mu.Unlock()

	lumaSize := min(size.Width*size.Height, len(buf))
	for i := range buf {
		if i < lumaSize {
			buf[i] = luma
		} else {
			buf[i] = 128
		}
	}
	fn(buf)
}
