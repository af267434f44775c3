package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type RabbitMQPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	Close() error
}

type rabbitMQPublisher struct {
	channel *amqp.Channel
	logger  zerolog.Logger
}

func NewRabbitMQPublisher(channel *amqp.Channel, logger zerolog.Logger) RabbitMQPublisher {
	return &rabbitMQPublisher{
		channel: channel,
		logger:  logger,
	}
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		publishCtx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (p *rabbitMQPublisher) Close() error {
	// Channel is closed by its owning connection.
	p.logger.Info().Msg("RabbitMQ publisher closed")
	return nil
}
