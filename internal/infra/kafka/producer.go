package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"course-settlement/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = (*Producer)(nil)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes outbox events synchronously: Publish returns only once
// the brokers acknowledged the message, so the relay can mark it sent.
type Producer struct {
	writer  messageWriter
	timeout time.Duration
	log     *zerolog.Logger
}

func NewProducer(brokers []string, topic string, logger *zerolog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same aggregate, same partition
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Trace().Msgf(msg, args...) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error().Msgf(msg, args...) }),
	}
	return &Producer{writer: w, timeout: w.WriteTimeout, log: logger}
}

func (p *Producer) Publish(ctx context.Context, key string, eventType string, payload []byte) error {
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(eventType)}},
	}

	produceCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(produceCtx, msg); err != nil {
		p.log.Error().Err(err).Str("key", key).Str("type", eventType).Msg("failed to produce message to kafka")
		return fmt.Errorf("produce %s: %w", eventType, err)
	}
	p.log.Debug().Str("key", key).Str("type", eventType).Msg("message produced to kafka")
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	p.log.Info().Msg("kafka producer closed")
	return nil
}

// LogPublisher stands in for kafka when no brokers are configured.
type LogPublisher struct {
	log *zerolog.Logger
}

var _ adapter.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *zerolog.Logger) *LogPublisher { return &LogPublisher{log: logger} }

func (p *LogPublisher) Publish(ctx context.Context, key string, eventType string, payload []byte) error {
	p.log.Info().Str("key", key).Str("type", eventType).RawJSON("payload", payload).Msg("domain event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
