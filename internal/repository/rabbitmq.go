package repository

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type RabbitMQRepository interface {
	Channel() *amqp.Channel
	SetupQueue(exchange, queue, routingKey string) error
	Consume(ctx context.Context, queue, consumer string) (<-chan amqp.Delivery, error)
	Close() error
}

type rabbitMQRepository struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  zerolog.Logger
}

func NewRabbitMQRepository(url string, logger zerolog.Logger) (RabbitMQRepository, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.Info().Msg("Connected to RabbitMQ")

	return &rabbitMQRepository{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

func (r *rabbitMQRepository) Channel() *amqp.Channel {
	return r.channel
}

func (r *rabbitMQRepository) SetupQueue(exchange, queue, routingKey string) error {
	err := r.channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := r.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = r.channel.QueueBind(
		q.Name,     // queue name
		routingKey, // routing key
		exchange,   // exchange
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	r.logger.Info().
		Str("exchange", exchange).
		Str("queue", q.Name).
		Str("routing_key", routingKey).
		Msg("RabbitMQ queue setup complete")

	return nil
}

func (r *rabbitMQRepository) Consume(ctx context.Context, queue, consumer string) (<-chan amqp.Delivery, error) {
	err := r.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return r.channel.ConsumeWithContext(
		ctx,
		queue,
		consumer,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
}

func (r *rabbitMQRepository) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
