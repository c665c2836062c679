package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event kinds published on the realtime channel
const (
	KindReading = "reading"
	KindAlert   = "alert"
)

// Event is the envelope published for every new reading or alert
type Event struct {
	Kind      string          `json:"kind"`
	PatientID uint            `json:"patient_id"`
	Payload   json.RawMessage `json:"payload"`
	At        time.Time       `json:"at"`
}

// Publisher fans out change events to dashboard sessions
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Hub publishes and subscribes to per-patient change events over Redis
// pub/sub.
type Hub struct {
	client *redis.Client
	logger *slog.Logger
}

// NewHub creates a realtime hub on an existing Redis client
func NewHub(client *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{client: client, logger: logger}
}

func channelFor(patientID uint) string {
	return fmt.Sprintf("vitalwatch:events:%d", patientID)
}

// Publish sends an event to every subscriber of the patient's channel
func (h *Hub) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := h.client.Publish(ctx, channelFor(event.PatientID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe opens a scoped subscription for one patient's events. The caller
// must Close the subscription when the consuming session ends, on every exit
// path.
func (h *Hub) Subscribe(ctx context.Context, patientID uint) (*Subscription, error) {
	ps := h.client.Subscribe(ctx, channelFor(patientID))

	// Force the SUBSCRIBE round trip so a broken connection surfaces here
	// rather than as a silent dead channel.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &Subscription{
		ps:     ps,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go sub.pump(h.logger)
	return sub, nil
}

// Subscription is a handle on one patient's event stream. Close releases the
// underlying pub/sub exactly once; closing twice is safe.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Events returns the stream of decoded events. The channel is closed when
// the subscription is closed or the connection drops.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close releases the subscription
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.ps.Close()
	})
}

func (s *Subscription) pump(logger *slog.Logger) {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("Dropping malformed realtime event", "error", err)
			continue
		}
		// The consumer may have stopped receiving before Close; a plain
		// send would park this goroutine forever once the buffer fills.
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}
