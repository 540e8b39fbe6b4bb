package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeSessionFailed
	TypeSessionError
	TypeFrameStats
	TypeTargetChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent is published on every capture session transition.
// Used for LED control and other reactive subsystems.
type SessionStateChangedEvent struct {
	CameraID   string `json:"camera_id" example:"0" doc:"Camera identifier"`
	State      string `json:"state" example:"running" enum:"opening,running,stopped" doc:"Session state"`
	Generation string `json:"generation" example:"request" doc:"Driver generation"`
	Format     string `json:"format,omitempty" example:"1280x720@[15.0:30.0]" doc:"Negotiated capture format"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// GetCameraID implements the SessionStateEvent interface for LED manager.
func (e SessionStateChangedEvent) GetCameraID() string {
	return e.CameraID
}

// IsActive implements the SessionStateEvent interface for LED manager.
func (e SessionStateChangedEvent) IsActive() bool {
	return e.State == "running"
}

// SessionFailedEvent reports a session that never became ready.
type SessionFailedEvent struct {
	CameraID  string `json:"camera_id" example:"0" doc:"Camera identifier"`
	Kind      string `json:"kind" example:"error" enum:"error,disconnected" doc:"Failure kind"`
	Message   string `json:"message" example:"Failed to open camera: device in use" doc:"Failure description"`
	Attempt   int    `json:"attempt" example:"1" doc:"Reacquire attempt, 0 for the initial open"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionFailedEvent.
func (e SessionFailedEvent) Type() uint32 { return TypeSessionFailed }

// SessionErrorEvent reports a running session that stopped on a device error
// or a disconnect.
type SessionErrorEvent struct {
	CameraID     string `json:"camera_id" example:"0" doc:"Camera identifier"`
	Message      string `json:"message" example:"Camera server died!" doc:"Error description"`
	Disconnected bool   `json:"disconnected" example:"false" doc:"Whether the camera was disconnected or evicted"`
	Timestamp    string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionErrorEvent.
func (e SessionErrorEvent) Type() uint32 { return TypeSessionError }

// FrameStatsEvent is a periodic summary of delivered frames.
type FrameStatsEvent struct {
	EventType string  `json:"type"`
	CameraID  string  `json:"camera_id"`
	Delivered uint64  `json:"delivered"`
	FPS       float64 `json:"fps"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Rotation  int     `json:"rotation"`
	Timestamp string  `json:"timestamp"`
}

// Type returns the event type identifier for FrameStatsEvent.
func (e FrameStatsEvent) Type() uint32 { return TypeFrameStats }

// TargetChangedEvent is published when the requested capture geometry changes.
type TargetChangedEvent struct {
	CameraID  string `json:"camera_id" example:"0" doc:"Camera identifier"`
	Width     int    `json:"width" example:"1280" doc:"Target width"`
	Height    int    `json:"height" example:"720" doc:"Target height"`
	MinFps    int    `json:"min_fps" example:"30" doc:"Target frame rate"`
	Restarted bool   `json:"restarted" doc:"Whether the running session was recreated to apply it"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TargetChangedEvent.
func (e TargetChangedEvent) Type() uint32 { return TypeTargetChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"capture" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
