package camera

import "time"

// CreateCallback resolves a session attempt. Exactly one method is called,
// exactly once.
type CreateCallback interface {
	OnSessionReady(s *Session)
	OnSessionFailed(kind FailureKind, message string)
}

// Events is the running-session event sink. Apart from OnOpening it is only
// used after OnSessionReady; OnClosed is the last call.
//
// OnOpening is emitted by the owner right before CreateSession, so a session
// that never becomes ready produces no event-sink calls at all.
type Events interface {
	OnOpening()
	OnFrameCaptured(frame Frame)
	OnError(message string)
	OnDisconnected()
	OnClosed()
}

// Metrics is an injected, optional measurement sink.
type Metrics interface {
	StartDuration(gen Generation, d time.Duration)
	StopDuration(gen Generation, d time.Duration)
	Resolution(gen Generation, size Size)
	BlackFrameDropped(gen Generation)
	FrameDelivered(gen Generation)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) StartDuration(Generation, time.Duration) {}
func (NopMetrics) StopDuration(Generation, time.Duration)  {}
func (NopMetrics) Resolution(Generation, Size)             {}
func (NopMetrics) BlackFrameDropped(Generation)            {}
func (NopMetrics) FrameDelivered(Generation)               {}
