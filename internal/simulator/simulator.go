package simulator

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/pkg/camera"
)

// ErrInUse is returned when a second device is opened while one is active.
var ErrInUse = errors.New("camera is in use")

const (
	defaultFrameInterval = 33 * time.Millisecond
	defaultLuma          = 128
	maxOutstanding       = 3
)

// Options configure the synthetic camera.
type Options struct {
	// FrameInterval between generated frames.
	FrameInterval time.Duration
	// BlackFrames is how many all-black frames each stream starts with.
	BlackFrames int
	// Luma of regular frames.
	Luma byte
	Logger *slog.Logger
}

// Stats is a snapshot of what the platform has seen.
type Stats struct {
	Opens           int
	Active          bool
	FramesDelivered uint64
	FramesDropped   uint64
	Outstanding     int
	Requests        int
	Captures        int
	Autofocus       int
	CaptureFailures int
	LastRequest     camera.CaptureRequest
	LastCapture     camera.CaptureRequest
	Parameters      camera.LegacyParameters
	Outputs         int
}

// Platform models one physical camera reachable through both generations.
type Platform struct {
	opts   Options
	logger *slog.Logger

	mu            sync.Mutex
	openErr       error
	configureFail bool
	request       *requestDevice
	legacy        *legacyDevice

	// frame source
	surface     *surface
	listener    func(camera.TextureFrame)
	textures    map[int]texture
	nextTexture int

	stats Stats
}

type texture struct {
	width  int
	height int
	luma   byte
}

// New creates a platform.
func New(opts Options) *Platform {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}
	if opts.Luma == 0 {
		opts.Luma = defaultLuma
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("simulator")
	}
	return &Platform{
		opts:        opts,
		logger:      opts.Logger,
		textures:    make(map[int]texture),
		nextTexture: 1,
	}
}

// SetOpenError makes subsequent opens fail with err. nil clears it.
func (p *Platform) SetOpenError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = err
}

// SetConfigureFailure makes subsequent session configurations fail.
func (p *Platform) SetConfigureFailure(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configureFail = fail
}

// Disconnect evicts the active device. It reports whether one was active.
func (p *Platform) Disconnect() bool {
	p.mu.Lock()
	req, leg := p.request, p.legacy
	p.mu.Unlock()

	switch {
	case req != nil:
		p.logger.Info("Simulating disconnect", "camera_id", req.id)
		go req.cb.OnDisconnected(req)
		return true
	case leg != nil:
		p.logger.Info("Simulating eviction", "index", leg.index)
		leg.raiseError(camera.LegacyErrorEvicted)
		return true
	}
	return false
}

// Fail reports a fatal device error on the active device. The legacy
// generation always reports a server death.
func (p *Platform) Fail(code int) bool {
	p.mu.Lock()
	req, leg := p.request, p.legacy
	p.mu.Unlock()

	switch {
	case req != nil:
		p.logger.Info("Simulating device error", "camera_id", req.id, "code", code)
		go req.cb.OnError(req, code)
		return true
	case leg != nil:
		p.logger.Info("Simulating server death", "index", leg.index)
		leg.raiseError(camera.LegacyErrorServerDied)
		return true
	}
	return false
}

// FailCapture reports a failed capture on the active repeating request of
// the request generation. The session keeps streaming.
func (p *Platform) FailCapture(reason string) bool {
	p.mu.Lock()
	req := p.request
	p.mu.Unlock()
	if req == nil {
		return false
	}

	req.mu.Lock()
	s := req.session
	req.mu.Unlock()
	if s == nil {
		return false
	}
	p.logger.Info("Simulating capture failure", "camera_id", req.id, "reason", reason)
	if !s.failCapture(reason) {
		return false
	}
	p.mu.Lock()
	p.stats.CaptureFailures++
	p.mu.Unlock()
	return true
}

// Stats returns a snapshot of the counters.
func (p *Platform) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Active = p.request != nil || p.legacy != nil
	s.Outstanding = len(p.textures)
	return s
}

// lumaFor returns the luma of frame seq of a stream. Caller holds mu.
func (p *Platform) lumaFor(seq int) byte {
	if seq < p.opts.BlackFrames {
		return 0
	}
	return p.opts.Luma
}

// ticker drives one stream of frames until halted.
type ticker struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startTicker(interval time.Duration, tick func(seq int)) *ticker {
	t := &ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for seq := 0; ; seq++ {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				tick(seq)
			}
		}
	}()
	return t
}

// halt stops the stream and waits for the in-flight tick.
func (t *ticker) halt() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stop) })
	<-t.done
}
