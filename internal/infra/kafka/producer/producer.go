package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/watermarker/internal/config"
	"github.com/aliskhannn/watermarker/internal/model"
)

// client is the part of the wbf kafka producer used here.
type client interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

// Producer publishes "artifact stored" events to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	client   client
	strategy retry.Strategy
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(
	cfg *config.Kafka,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)

	return &Producer{
		Client:   producer,
		client:   producer,
		strategy: s,
	}
}

func newWithClient(c client, s retry.Strategy) *Producer {
	return &Producer{client: c, strategy: s}
}

// Event is the message published for every stored artifact.
type Event struct {
	Type     string         `json:"type"`
	Artifact model.Artifact `json:"artifact"`
}

// EventArtifactStored is the type of Event sent after a successful Put.
const EventArtifactStored = "artifact.stored"

// Produce serializes the artifact metadata to JSON and sends it to Kafka.
// The artifact ID is used as the message key. The payload itself is never sent.
func (p *Producer) Produce(ctx context.Context, a model.Artifact) error {
	data, err := json.Marshal(Event{Type: EventArtifactStored, Artifact: a})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = p.client.SendWithRetry(ctx, p.strategy, []byte(a.ID), data); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	return nil
}

// Close closes the underlying Kafka writer.
func (p *Producer) Close() error {
	if p.Client == nil {
		return nil
	}
	return p.Client.Close()
}
