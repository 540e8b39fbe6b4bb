package exporters

import (
	"context"
	"sync"
	"time"

	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter periodically publishes per-camera frame statistics.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	last     map[string]uint64
	lastAt   time.Time
}

// NewSSEExporter creates a new SSE exporter.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: 1 * time.Second,
		last:     make(map[string]uint64),
	}
}

// Start begins the SSE export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.lastAt = time.Now()
	s.wg.Add(1)
	go s.run(s.ctx)
}

// Stop stops the SSE exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.publishStats(now)
		}
	}
}

func (s *SSEExporter) publishStats(now time.Time) {
	elapsed := now.Sub(s.lastAt).Seconds()
	s.lastAt = now

	for cameraID, m := range metrics.GetAllCameraStats() {
		if !m.Active {
			delete(s.last, cameraID)
			continue
		}
		var fps float64
		if prev, ok := s.last[cameraID]; ok && elapsed > 0 && m.Delivered >= prev {
			fps = float64(m.Delivered-prev) / elapsed
		}
		s.last[cameraID] = m.Delivered

		s.eventBus.Publish(events.FrameStatsEvent{
			EventType: "frame_stats",
			CameraID:  cameraID,
			Delivered: m.Delivered,
			FPS:       fps,
			Width:     m.Width,
			Height:    m.Height,
			Rotation:  m.Rotation,
			Timestamp: now.Format(time.RFC3339),
		})
	}
}

// GetEventTypes returns event types for SSE endpoint registration.
func GetEventTypes() map[string]any {
	return map[string]any{
		"frame-stats": events.FrameStatsEvent{},
	}
}
