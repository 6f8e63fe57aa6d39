package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica eventos bet_placed no Kafka
type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.MatchID), Value: b})
}

// OddsBroadcaster publica snapshots de odds no canal Redis Pub/Sub,
// de onde o hub WebSocket de cada réplica repassa aos clientes.
type OddsBroadcaster struct {
	R       *redis.Client
	Channel string
}

func NewOddsBroadcaster(r *redis.Client, channel string) *OddsBroadcaster {
	return &OddsBroadcaster{R: r, Channel: channel}
}

func (b *OddsBroadcaster) PublishOdds(ctx context.Context, upd events.PoolOddsUpdate) error {
	payload, _ := json.Marshal(upd)
	return b.R.Publish(ctx, b.Channel, payload).Err()
}
