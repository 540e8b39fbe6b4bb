// Package metrics provides Prometheus metrics for capture sessions.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/camsession/pkg/camera"
)

var (
	sessionStartDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "start_duration_seconds",
		Help:      "Time from opening the camera to the first delivered frame",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	}, []string{"generation"})

	sessionStopDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "stop_duration_seconds",
		Help:      "Time spent closing a capture session",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"generation"})

	sessionResolution = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "resolution_total",
		Help:      "Negotiated capture resolutions",
	}, []string{"generation", "resolution"})

	sessionActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "active",
		Help:      "Whether a capture session is running for the camera",
	}, []string{"camera_id"})

	framesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "frames",
		Name:      "delivered_total",
		Help:      "Frames delivered to the consumer",
	}, []string{"camera_id", "generation"})

	framesBlackDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "frames",
		Name:      "black_dropped_total",
		Help:      "Black frames dropped during session warm-up",
	}, []string{"camera_id", "generation"})

	// Local cache for SSE exporter access.
	cameraCache   = make(map[string]*CameraStats)
	cameraCacheMu sync.RWMutex
)

// CameraStats holds current values for one camera.
type CameraStats struct {
	Delivered    uint64
	BlackDropped uint64
	Width        int
	Height       int
	Rotation     int
	Active       bool
}

// Sink records one camera's session measurements. It implements camera.Metrics.
type Sink struct {
	cameraID string
}

// NewSink returns the measurement sink for a camera.
func NewSink(cameraID string) *Sink {
	return &Sink{cameraID: cameraID}
}

var _ camera.Metrics = (*Sink)(nil)

// StartDuration implements camera.Metrics.
func (s *Sink) StartDuration(gen camera.Generation, d time.Duration) {
	sessionStartDuration.WithLabelValues(gen.String()).Observe(d.Seconds())
}

// StopDuration implements camera.Metrics.
func (s *Sink) StopDuration(gen camera.Generation, d time.Duration) {
	sessionStopDuration.WithLabelValues(gen.String()).Observe(d.Seconds())
}

// Resolution implements camera.Metrics.
func (s *Sink) Resolution(gen camera.Generation, size camera.Size) {
	sessionResolution.WithLabelValues(gen.String(), fmt.Sprintf("%dx%d", size.Width, size.Height)).Inc()
	updateCache(s.cameraID, func(m *CameraStats) {
		m.Width = size.Width
		m.Height = size.Height
	})
}

// BlackFrameDropped implements camera.Metrics.
func (s *Sink) BlackFrameDropped(gen camera.Generation) {
	framesBlackDropped.WithLabelValues(s.cameraID, gen.String()).Inc()
	updateCache(s.cameraID, func(m *CameraStats) { m.BlackDropped++ })
}

// FrameDelivered implements camera.Metrics.
func (s *Sink) FrameDelivered(gen camera.Generation) {
	framesDelivered.WithLabelValues(s.cameraID, gen.String()).Inc()
	updateCache(s.cameraID, func(m *CameraStats) { m.Delivered++ })
}

// SetRotation records the rotation of the last delivered frame.
func SetRotation(cameraID string, degrees int) {
	updateCache(cameraID, func(m *CameraStats) { m.Rotation = degrees })
}

// SetSessionActive flags whether a camera currently has a running session.
func SetSessionActive(cameraID string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	sessionActive.WithLabelValues(cameraID).Set(v)
	updateCache(cameraID, func(m *CameraStats) { m.Active = active })
}

// DeleteCameraMetrics removes all per-camera series.
func DeleteCameraMetrics(cameraID string) {
	sessionActive.DeleteLabelValues(cameraID)
	for _, gen := range []camera.Generation{camera.GenerationLegacy, camera.GenerationRequest} {
		framesDelivered.DeleteLabelValues(cameraID, gen.String())
		framesBlackDropped.DeleteLabelValues(cameraID, gen.String())
	}

	cameraCacheMu.Lock()
	delete(cameraCache, cameraID)
	cameraCacheMu.Unlock()
}

// GetCameraStats returns current values for a camera.
func GetCameraStats(cameraID string) *CameraStats {
	cameraCacheMu.RLock()
	defer cameraCacheMu.RUnlock()
	if m, ok := cameraCache[cameraID]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// GetAllCameraStats returns values for every camera seen so far.
func GetAllCameraStats() map[string]*CameraStats {
	cameraCacheMu.RLock()
	defer cameraCacheMu.RUnlock()
	result := make(map[string]*CameraStats, len(cameraCache))
	for id, m := range cameraCache {
		dup := *m
		result[id] = &dup
	}
	return result
}

func updateCache(cameraID string, update func(*CameraStats)) {
	cameraCacheMu.Lock()
	defer cameraCacheMu.Unlock()
	m, ok := cameraCache[cameraID]
	if !ok {
		m = &CameraStats{}
		cameraCache[cameraID] = m
	}
	update(m)
}
