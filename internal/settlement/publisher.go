package settlement

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica eventos pool_settled no Kafka
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishPoolSettled(ctx context.Context, e events.PoolSettled) error {
	b, _ := json.Marshal(e)
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.MatchID), Value: b})
}
