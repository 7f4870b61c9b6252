package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

const (
	BorrowTopic        = "librovault.borrow-events"
	StatsConsumerGroup = "stats"
)

// BorrowEvent is published after every successful borrow or return so the
// stats consumer can keep per-book counters current.
type BorrowEvent struct {
	BookID   int       `json:"bookId"`
	Returned bool      `json:"returned"`
	At       time.Time `json:"at"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the consumer-group session loop until ctx is cancelled.
func Consume(ctx context.Context, cg sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topic string, log *zap.Logger) {
	for {
		if err := cg.Consume(ctx, []string{topic}, handler); err != nil {
			log.Error("kafka consume", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
