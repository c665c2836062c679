package mqttingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReading_FullPayload(t *testing.T) {
	body := []byte(`{"bpm": 72.5, "spo2": 97, "temperature": 36.8, "lat": 12.9716, "lng": 77.5946}`)

	reading, err := decodeReading("vitalwatch/sensor/42", body)
	require.NoError(t, err)

	assert.Equal(t, uint(42), reading.PatientID)
	assert.Equal(t, 72.5, *reading.BPM)
	assert.Equal(t, 97.0, *reading.SpO2)
	assert.Equal(t, 36.8, *reading.Temperature)
	assert.Equal(t, 12.9716, *reading.Latitude)
	assert.Equal(t, string(body), reading.RawValues)
	assert.False(t, reading.SensorFault)
}

func TestDecodeReading_PartialPayload(t *testing.T) {
	reading, err := decodeReading("vitalwatch/sensor/7", []byte(`{"sensor_fault": true}`))
	require.NoError(t, err)

	assert.Equal(t, uint(7), reading.PatientID)
	assert.Nil(t, reading.BPM)
	assert.True(t, reading.SensorFault)
}

func TestDecodeReading_MalformedBody(t *testing.T) {
	_, err := decodeReading("vitalwatch/sensor/7", []byte(`{"bpm":`))
	assert.Error(t, err)
}

func TestPatientFromTopic(t *testing.T) {
	id, err := patientFromTopic("vitalwatch/sensor/33")
	require.NoError(t, err)
	assert.Equal(t, uint(33), id)

	for _, topic := range []string{
		"vitalwatch/sensor/abc",
		"vitalwatch/sensor/0",
		"vitalwatch/sensor/",
		"vitalwatch/sensor/-3",
	} {
		_, err := patientFromTopic(topic)
		assert.Error(t, err, topic)
	}
}
