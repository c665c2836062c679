package mqttingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"github.com/vitalwatch/vitalwatch/internal/services"
)

const ingestTimeout = 10 * time.Second

// payload is the wire shape published by wearable bridges. Every field is
// optional; the patient id comes from the topic, not the body.
type payload struct {
	BPM         *float64 `json:"bpm"`
	RRInterval  *float64 `json:"rr_interval"`
	SpO2        *float64 `json:"spo2"`
	Temperature *float64 `json:"temperature"`
	AccelX      *float64 `json:"accel_x"`
	AccelY      *float64 `json:"accel_y"`
	AccelZ      *float64 `json:"accel_z"`
	Latitude    *float64 `json:"lat"`
	Longitude   *float64 `json:"lng"`
	SensorFault bool     `json:"sensor_fault"`
}

// Consumer subscribes to the sensor topic tree and feeds every sample into
// the monitoring pipeline. Malformed messages are dropped with a log line;
// a bad publisher must not take the ingest path down.
type Consumer struct {
	cfg     config.MQTTConfig
	monitor *services.MonitorService
	logger  *slog.Logger
	client  mqtt.Client
}

// NewConsumer creates an MQTT consumer; call Start to connect
func NewConsumer(cfg config.MQTTConfig, monitor *services.MonitorService, logger *slog.Logger) *Consumer {
	return &Consumer{
		cfg:     cfg,
		monitor: monitor,
		logger:  logger,
	}
}

// Start connects to the broker and subscribes. Reconnects and
// re-subscription are handled by the client; the OnConnect hook runs on
// every (re)connection.
func (c *Consumer) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.cfg.Broker)
	opts.SetClientID(c.cfg.ClientID)
	opts.SetUsername(c.cfg.Username)
	opts.SetPassword(c.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		c.logger.Info("Connected to MQTT broker", "broker", c.cfg.Broker)
		c.subscribe(client)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.logger.Warn("MQTT connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	c.client = client
	return nil
}

// Stop disconnects from the broker, letting in-flight handlers finish
func (c *Consumer) Stop() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
}

func (c *Consumer) subscribe(client mqtt.Client) {
	token := client.Subscribe(c.cfg.Topic, 1, c.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		c.logger.Error("Failed to subscribe", "topic", c.cfg.Topic, "error", err)
		return
	}
	c.logger.Info("Subscribed to sensor topic", "topic", c.cfg.Topic)
}

func (c *Consumer) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	reading, err := decodeReading(msg.Topic(), msg.Payload())
	if err != nil {
		c.logger.Warn("Dropping malformed sensor message",
			"topic", msg.Topic(), "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if _, err := c.monitor.Ingest(ctx, reading); err != nil {
		c.logger.Warn("Sensor message rejected",
			"patient_id", reading.PatientID, "error", err)
	}
}

// decodeReading parses "<prefix>/sensor/<patientID>" topics and the JSON
// body into a reading
func decodeReading(topic string, body []byte) (*domain.Reading, error) {
	patientID, err := patientFromTopic(topic)
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}

	return &domain.Reading{
		PatientID:   patientID,
		BPM:         p.BPM,
		RRInterval:  p.RRInterval,
		SpO2:        p.SpO2,
		Temperature: p.Temperature,
		AccelX:      p.AccelX,
		AccelY:      p.AccelY,
		AccelZ:      p.AccelZ,
		RawValues:   string(body),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		SensorFault: p.SensorFault,
	}, nil
}

func patientFromTopic(topic string) (uint, error) {
	segments := strings.Split(topic, "/")
	last := segments[len(segments)-1]
	id, err := strconv.ParseUint(last, 10, 32)
	if err != nil || id == 0 {
		return 0, &badTopicError{topic: topic}
	}
	return uint(id), nil
}

type badTopicError struct {
	topic string
}

func (e *badTopicError) Error() string {
	return "topic does not end in a patient id: " + e.topic
}
