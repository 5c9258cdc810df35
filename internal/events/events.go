// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
	"cryptomart/internal/tracing"
)

const SaleRecordedType = "sale.recorded"

// SaleRecorded is the payload published after a sale commits.
type SaleRecorded struct {
	EventType  string        `json:"eventType"`
	SaleID     string        `json:"saleId"`
	SoldBy     string        `json:"soldBy"`
	Total      pricing.Money `json:"totalAmount"`
	LineCount  int           `json:"lineCount"`
	RecordedAt time.Time     `json:"recordedAt"`
}

func NewSaleRecorded(s domain.Sale) SaleRecorded {
	return SaleRecorded{
		EventType:  SaleRecordedType,
		SaleID:     s.ID,
		SoldBy:     s.SoldBy,
		Total:      s.Total,
		LineCount:  len(s.Lines),
		RecordedAt: s.CreatedAt,
	}
}

// Publisher sends domain events to the message bus.
type Publisher interface {
	PublishSale(ctx context.Context, evt SaleRecorded) error
	Close() error
}

// NewProducer creates a synchronous producer that waits for all replicas.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafka publishes to topic, keying each message by sale id.
func NewKafka(producer sarama.SyncProducer, topic string, logger *zap.Logger) Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &kafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *kafkaPublisher) PublishSale(ctx context.Context, evt SaleRecorded) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	carrier := make(headerCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(evt.SaleID),
		Value:   sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader(carrier),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	p.logger.Info("event published",
		zap.String("trace_id", tracing.TraceID(ctx)),
		zap.String("topic", p.topic),
		zap.String("event_type", evt.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// Nop drops events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishSale(context.Context, SaleRecorded) error { return nil }
func (Nop) Close() error                                    { return nil }

// headerCarrier adapts Kafka record headers to the otel TextMapCarrier.
type headerCarrier []sarama.RecordHeader

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
