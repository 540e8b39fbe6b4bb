package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/metrics/exporters"
)

// MetricsStreamInput narrows the stream to one camera.
type MetricsStreamInput struct {
	CameraID string `query:"camera_id" doc:"Only send statistics for this camera"`
}

func (s *Server) registerMetricsRoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "metrics-stream",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Metrics Server-Sent Events Stream",
		Description: "Per-second frame statistics of running sessions",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, exporters.GetEventTypes(), func(ctx context.Context, input *MetricsStreamInput, send sse.Sender) {
		eventCh := make(chan any, 10)

		var keep func(events.FrameStatsEvent) bool
		if id := input.CameraID; id != "" {
			keep = func(e events.FrameStatsEvent) bool { return e.CameraID == id }
		}
		sub := events.NewSubscription(s.eventBus, eventCh)
		events.Forward(sub, keep)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
