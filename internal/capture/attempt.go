package capture

import (
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/pkg/camera"
)

// attempt is the creation callback and event sink of one session. Calls
// from an attempt the service has moved on from are ignored.
//
// While the attempt is opening the service may give up on it (discard) or
// ask for a fresh session from the current profile (reopen). Either way the
// attempt is closed when it settles.
type attempt struct {
	s        *Service
	cameraID string
	number   int
	session  *camera.Session
	rotation int
	discard  bool
	reopen   bool
}

// settle ends a superseded attempt and opens its replacement.
func (a *attempt) settle() {
	s := a.s
	s.pending = nil
	if a.reopen && !a.discard && !s.closed {
		s.logger.Info("Reopening camera with the current profile", "camera_id", s.cameraID())
		s.open()
	}
}

func (a *attempt) current() bool {
	if a.session != nil {
		return a.s.session == a.session
	}
	return a.s.pending == a
}

func (a *attempt) OnSessionReady(session *camera.Session) {
	s := a.s
	if !a.current() || s.closed {
		session.Stop()
		return
	}
	if a.discard || a.reopen {
		session.Stop()
		a.settle()
		return
	}
	a.session = session
	s.pending = nil
	s.session = session
	s.lastError = ""
	s.reacquires = 0
	if s.torch {
		session.SetTorch(true)
	}
	metrics.SetSessionActive(a.cameraID, true)
	s.setState(StateRunning)
}

func (a *attempt) OnSessionFailed(kind camera.FailureKind, message string) {
	s := a.s
	if !a.current() {
		return
	}
	if a.discard || a.reopen {
		a.settle()
		return
	}
	s.pending = nil
	s.lastError = message
	s.publish(events.SessionFailedEvent{
		CameraID:  a.cameraID,
		Kind:      kind.String(),
		Message:   message,
		Attempt:   a.number,
		Timestamp: timestamp(),
	})
	s.setState(StateStopped)
	if kind == camera.FailureDisconnected {
		s.scheduleReacquire()
	}
}

func (a *attempt) OnOpening() {
	a.s.setState(StateOpening)
}

func (a *attempt) OnFrameCaptured(frame camera.Frame) {
	if frame.Rotation != a.rotation {
		a.rotation = frame.Rotation
		metrics.SetRotation(a.cameraID, frame.Rotation)
	}
	if a.s.onFrame != nil {
		a.s.onFrame(frame)
	}
}

func (a *attempt) OnError(message string) {
	a.stopped(message, false)
}

func (a *attempt) OnDisconnected() {
	if a.stopped("Camera disconnected / evicted.", true) {
		a.s.scheduleReacquire()
	}
}

func (a *attempt) OnClosed() {
	a.s.logger.Debug("Camera closed", "camera_id", a.cameraID)
}

// stopped handles a running session that ended on its own.
func (a *attempt) stopped(message string, disconnected bool) bool {
	s := a.s
	if !a.current() {
		return false
	}
	s.session = nil
	s.lastError = message
	metrics.SetSessionActive(a.cameraID, false)
	s.publish(events.SessionErrorEvent{
		CameraID:     a.cameraID,
		Message:      message,
		Disconnected: disconnected,
		Timestamp:    timestamp(),
	})
	s.setState(StateStopped)
	return true
}
