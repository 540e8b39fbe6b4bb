package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/camsession/internal/events"
)

// Manager subscribes to capture session events and drives the capture
// indicator LED: solid while any camera is running, blinking while a camera
// is opening, off otherwise.
type Manager struct {
	controller  Controller
	ledType     string
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	states  map[string]string // cameraID -> session state
	applied string
}

// NewManager creates a new LED manager for the indicator LED ledType.
func NewManager(controller Controller, ledType string, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		ledType:    ledType,
		eventBus:   eventBus,
		logger:     logger,
		states:     make(map[string]string),
	}
}

// Start begins listening for session state change events and turns the indicator off.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.SessionStateChangedEvent) {
		m.handleEvent(e)
	})
	m.mu.Lock()
	m.update()
	m.mu.Unlock()
	m.logger.Info("LED manager started", "led", m.ledType)
}

// Stop unsubscribes from events and turns the indicator off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.mu.Lock()
	m.states = make(map[string]string)
	m.update()
	m.mu.Unlock()
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(event events.SessionStateChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cameraID := event.GetCameraID()
	if event.State == "stopped" {
		delete(m.states, cameraID)
	} else {
		m.states[cameraID] = event.State
	}

	m.logger.Debug("Session state changed",
		"camera_id", cameraID,
		"state", event.State,
		"active", event.IsActive())

	m.update()
}

// update applies the aggregate pattern. Caller holds mu.
func (m *Manager) update() {
	pattern := PatternNone
	for _, state := range m.states {
		if state == "running" {
			pattern = PatternSolid
			break
		}
		pattern = PatternBlink
	}
	if pattern == m.applied {
		return
	}

	if err := m.controller.Set(m.ledType, pattern != PatternNone, pattern); err != nil {
		m.logger.Warn("Failed to set indicator LED", "led", m.ledType, "pattern", pattern, "error", err)
		return
	}
	m.applied = pattern
}

// Pattern returns the last pattern applied to the indicator.
func (m *Manager) Pattern() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied
}

// Indicator is the LED the manager drives.
func (m *Manager) Indicator() string {
	return m.ledType
}
