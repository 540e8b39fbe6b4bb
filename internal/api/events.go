package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/camsession/internal/events"
)

// registerSSERoutes registers the session event stream.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time capture session lifecycle events. The current state is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"session-state":  events.SessionStateChangedEvent{},
		"session-failed": events.SessionFailedEvent{},
		"session-error":  events.SessionErrorEvent{},
		"target-changed": events.TargetChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		sub := events.NewSubscription(s.eventBus, eventCh)
		events.Forward[events.SessionStateChangedEvent](sub, nil)
		events.Forward[events.SessionFailedEvent](sub, nil)
		events.Forward[events.SessionErrorEvent](sub, nil)
		events.Forward[events.TargetChangedEvent](sub, nil)
		defer func() {
			sub.Close()
			if n := sub.Dropped(); n > 0 {
				s.logger.Warn("Event stream client lagged", "dropped", n)
			}
		}()

		if err := send.Data(s.currentState()); err != nil {
			return
		}

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

// currentState renders the service status as a state event.
func (s *Server) currentState() events.SessionStateChangedEvent {
	ev := events.SessionStateChangedEvent{
		State:     "stopped",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.capture == nil {
		return ev
	}
	st, err := s.capture.Status()
	if err != nil {
		return ev
	}
	ev.CameraID = st.CameraID
	ev.State = st.State
	ev.Generation = st.Generation
	if st.Format != nil {
		ev.Format = st.Format.String()
	}
	return ev
}
