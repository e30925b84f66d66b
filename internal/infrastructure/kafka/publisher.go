// Package kafka publica las alertas de stock bajo en un tópico Kafka.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
	"github.com/jhoicas/b2b-stock-api/pkg/logger"
)

// EventTypeLowStock valor del header event_type de cada alerta.
const EventTypeLowStock = "LowStockAlert"

var _ ports.Publisher = (*Publisher)(nil)

// Producer lo que el publicador necesita de *kafka.Writer.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher implementa ports.Publisher sobre kafka-go.
type Publisher struct {
	producer  Producer
	eventType string
	log       *logger.Logger
}

// NewWriter construye el *kafka.Writer compartido. El tópico viaja en cada mensaje.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewPublisher construye el publicador.
func NewPublisher(producer Producer, log *logger.Logger) *Publisher {
	return &Publisher{producer: producer, eventType: EventTypeLowStock, log: log.Component("kafka")}
}

// Publish escribe un mensaje con la clave del recurso y los headers subject y event_type.
func (p *Publisher) Publish(ctx context.Context, msg ports.Message) error {
	km := kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: "subject", Value: []byte(msg.Subject)},
			{Key: "event_type", Value: []byte(p.eventType)},
		},
	}
	if err := p.producer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("kafka publish %s: %w", msg.Topic, err)
	}
	p.log.Debug().Str("topic", msg.Topic).Str("key", msg.Key).Msg("alerta publicada")
	return nil
}
