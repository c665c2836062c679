package voice

import (
	"log/slog"
	"strings"
	"sync"
)

// State is one phase of the hands-free voice loop
type State string

const (
	StateIdle       State = "Idle"
	StateListening  State = "Listening"
	StateProcessing State = "Processing"
	StateSpeaking   State = "Speaking"
)

// Command is what a recognized utterance resolved to
type Command string

const (
	CommandEmergencyAlert Command = "EMERGENCY_ALERT"
	CommandNone           Command = "NONE"
)

// emergencyKeywords trigger a distress command anywhere in the transcript
var emergencyKeywords = []string{
	"send alert",
	"help me",
	"emergency",
	"alert",
}

// Recognizer is the speech capture backend. Start begins a recognition
// session; OnEnd fires when the backend stops on its own, which happens
// routinely on silence.
type Recognizer interface {
	Start() error
	Stop()
}

// StateMachine drives the voice control loop. The recognizer stopping on
// its own returns to Listening only while the loop is activated; a manual
// stop deactivates first so the end event lands in Idle.
type StateMachine struct {
	recognizer Recognizer
	onCommand  func(Command, string)
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	activated bool
}

// NewStateMachine creates an idle voice loop. onCommand receives the
// resolved command together with the raw transcript.
func NewStateMachine(recognizer Recognizer, onCommand func(Command, string), logger *slog.Logger) *StateMachine {
	return &StateMachine{
		recognizer: recognizer,
		onCommand:  onCommand,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current phase
func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Activate starts listening. Activating an already active loop is a no-op.
func (m *StateMachine) Activate() error {
	m.mu.Lock()
	if m.activated {
		m.mu.Unlock()
		return nil
	}
	m.activated = true
	m.state = StateListening
	m.mu.Unlock()

	if err := m.recognizer.Start(); err != nil {
		m.mu.Lock()
		m.activated = false
		m.state = StateIdle
		m.mu.Unlock()
		return err
	}
	m.logger.Info("Voice control activated")
	return nil
}

// Deactivate stops the loop. The recognizer's end event after a manual stop
// finds the loop deactivated and stays in Idle.
func (m *StateMachine) Deactivate() {
	m.mu.Lock()
	if !m.activated {
		m.mu.Unlock()
		return
	}
	m.activated = false
	m.state = StateIdle
	m.mu.Unlock()

	m.recognizer.Stop()
	m.logger.Info("Voice control deactivated")
}

// OnResult handles a final transcript from the recognizer
func (m *StateMachine) OnResult(transcript string) {
	m.mu.Lock()
	if !m.activated {
		m.mu.Unlock()
		return
	}
	m.state = StateProcessing
	m.mu.Unlock()

	command := Resolve(transcript)
	if command != CommandNone && m.onCommand != nil {
		m.mu.Lock()
		m.state = StateSpeaking
		m.mu.Unlock()
		m.onCommand(command, transcript)
	}

	m.mu.Lock()
	if m.activated {
		m.state = StateListening
	}
	m.mu.Unlock()
}

// OnError handles a recognition error. Transient errors keep the loop
// armed; the recognizer's end event restarts capture.
func (m *StateMachine) OnError(err error) {
	m.logger.Warn("Speech recognition error", "error", err)
}

// OnEnd handles the recognizer stopping. While activated the loop restarts
// capture; after Deactivate it stays down.
func (m *StateMachine) OnEnd() {
	m.mu.Lock()
	activated := m.activated
	if activated {
		m.state = StateListening
	}
	m.mu.Unlock()

	if !activated {
		return
	}
	if err := m.recognizer.Start(); err != nil {
		m.logger.Warn("Failed to restart speech recognition", "error", err)
		m.mu.Lock()
		m.activated = false
		m.state = StateIdle
		m.mu.Unlock()
	}
}

// Resolve maps a transcript to a command. Matching is case-insensitive and
// substring-based so natural phrasing still triggers.
func Resolve(transcript string) Command {
	lowered := strings.ToLower(transcript)
	for _, keyword := range emergencyKeywords {
		if strings.Contains(lowered, keyword) {
			return CommandEmergencyAlert
		}
	}
	return CommandNone
}
