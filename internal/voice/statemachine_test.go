package voice

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	starts   int
	stops    int
	startErr error
}

func (s *stubRecognizer) Start() error {
	s.starts++
	return s.startErr
}

func (s *stubRecognizer) Stop() {
	s.stops++
}

func TestResolve_EmergencyKeywords(t *testing.T) {
	for _, transcript := range []string{
		"send alert",
		"please HELP ME now",
		"this is an emergency",
		"raise an alert for me",
	} {
		assert.Equal(t, CommandEmergencyAlert, Resolve(transcript), transcript)
	}

	assert.Equal(t, CommandNone, Resolve("what is my heart rate"))
	assert.Equal(t, CommandNone, Resolve(""))
}

func TestActivate_StartsListening(t *testing.T) {
	rec := &stubRecognizer{}
	m := NewStateMachine(rec, nil, slog.Default())

	require.NoError(t, m.Activate())
	assert.Equal(t, StateListening, m.State())
	assert.Equal(t, 1, rec.starts)

	// double activation is a no-op
	require.NoError(t, m.Activate())
	assert.Equal(t, 1, rec.starts)
}

func TestActivate_StartFailureStaysIdle(t *testing.T) {
	rec := &stubRecognizer{startErr: errors.New("microphone unavailable")}
	m := NewStateMachine(rec, nil, slog.Default())

	require.Error(t, m.Activate())
	assert.Equal(t, StateIdle, m.State())
}

func TestOnEnd_RestartsWhileActivated(t *testing.T) {
	rec := &stubRecognizer{}
	m := NewStateMachine(rec, nil, slog.Default())
	require.NoError(t, m.Activate())

	m.OnEnd()
	assert.Equal(t, 2, rec.starts)
	assert.Equal(t, StateListening, m.State())
}

func TestOnEnd_StaysDownAfterDeactivate(t *testing.T) {
	rec := &stubRecognizer{}
	m := NewStateMachine(rec, nil, slog.Default())
	require.NoError(t, m.Activate())

	m.Deactivate()
	assert.Equal(t, 1, rec.stops)

	m.OnEnd()
	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, StateIdle, m.State())
}

func TestOnResult_EmitsEmergencyCommand(t *testing.T) {
	rec := &stubRecognizer{}
	var gotCommand Command
	var gotTranscript string
	m := NewStateMachine(rec, func(cmd Command, transcript string) {
		gotCommand = cmd
		gotTranscript = transcript
	}, slog.Default())
	require.NoError(t, m.Activate())

	m.OnResult("help me please")
	assert.Equal(t, CommandEmergencyAlert, gotCommand)
	assert.Equal(t, "help me please", gotTranscript)
	assert.Equal(t, StateListening, m.State())
}

func TestOnResult_IgnoredWhenIdle(t *testing.T) {
	called := false
	m := NewStateMachine(&stubRecognizer{}, func(Command, string) { called = true }, slog.Default())

	m.OnResult("emergency")
	assert.False(t, called)
	assert.Equal(t, StateIdle, m.State())
}
