package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica eventos match_result no Kafka.
// O settlement-worker consome esse tópico para liquidar o pool da partida.
type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishMatchResult(ctx context.Context, e events.MatchResult) error {
	e.Ts = time.Now().UTC()
	b, _ := json.Marshal(e)
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.MatchID), Value: b})
}
