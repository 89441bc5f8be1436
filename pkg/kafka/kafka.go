package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"borrowing-events"`
	Group string   `envconfig:"KAFKA_GROUP" default:"library"`
}

type EventType string

const (
	EventBorrowed EventType = "BORROWED"
	EventReturned EventType = "RETURNED"
	EventFinePaid EventType = "FINE_PAID"
)

// BorrowingEvent is the audit record published on every borrowing
// lifecycle change and consumed into the events table.
type BorrowingEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	BorrowingUid string    `json:"borrowingUid"`
	UserID       int       `json:"userId"`
	BookID       int       `json:"bookId"`
	EventType    EventType `json:"eventType"`
	Amount       float64   `json:"amount"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumerGroup(cfg Config) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, cfg.Group, defaultCfg)
}

// Consume runs the consumer group loop until ctx is canceled; Consume
// returns after every rebalance, so the session must be re-entered.
func Consume(ctx context.Context, cg sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topic string) error {
	for {
		if err := cg.Consume(ctx, []string{topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
