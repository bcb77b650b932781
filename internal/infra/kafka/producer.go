package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"vedirect-gateway/internal/config"
	"vedirect-gateway/internal/infra/mq"
)

// ErrNoBrokers 未配置 Kafka broker
var ErrNoBrokers = errors.New("kafka: no brokers configured")

type KafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
	// topic 为 message_queue.kafka.topic，非空时覆盖调用方传入的 topic
	topic        string
	defaultTopic string
}

// Ensure KafkaProducer implements mq.Producer
var _ mq.Producer = (*KafkaProducer)(nil)

// NewKafkaProducer 创建异步写入的 Kafka 生产者。消息按设备序列号哈希分区，
// 同一设备的数据保持顺序。defaultTopic 用于调用方未指定 topic 的消息。
func NewKafkaProducer(cfg config.KafkaConfig, defaultTopic string, logger *zap.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Async Kafka write failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}

	logger.Info("Initialized Kafka producer", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic), zap.String("default_topic", defaultTopic))

	return &KafkaProducer{
		writer:       w,
		logger:       logger,
		topic:        cfg.Topic,
		defaultTopic: defaultTopic,
	}, nil
}

// message 构建待写入的消息。topic 优先级: kafka.topic > 调用方 topic > 默认 topic
func (p *KafkaProducer) message(topic string, key string, data interface{}) (kafka.Message, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal data: %w", err)
	}

	targetTopic := p.defaultTopic
	switch {
	case p.topic != "":
		targetTopic = p.topic
	case topic != "":
		targetTopic = topic
	}
	return kafka.Message{
		Topic: targetTopic,
		Key:   []byte(key),
		Value: body,
		Time:  time.Now(),
	}, nil
}

func (p *KafkaProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	msg, err := p.message(topic, key, data)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to produce message to Kafka", zap.Error(err), zap.String("topic", msg.Topic))
		return err
	}

	p.logger.Debug("Produced message to Kafka", zap.String("topic", msg.Topic), zap.String("key", key))
	return nil
}

func (p *KafkaProducer) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
