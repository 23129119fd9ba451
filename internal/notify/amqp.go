package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/isdelr/ecofinds/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Queue publishes a JSON receipt per checkout to a durable RabbitMQ queue.
type Queue struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex // an amqp.Channel is not safe for concurrent publishing
	ch publisher
}

// DialQueue connects to RabbitMQ at uri and declares the durable queue.
func DialQueue(uri, queue string) (*Queue, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	log.Info().Str("queue", queue).Msg("Connected to RabbitMQ")
	return &Queue{conn: conn, queue: queue, ch: ch}, nil
}

// NotifyPurchases implements Notifier.
func (q *Queue) NotifyPurchases(ctx context.Context, buyer models.User, purchases []models.Purchase) error {
	body, err := json.Marshal(NewReceipt(buyer, purchases))
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	err = q.ch.PublishWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Type:         models.EventCartCheckout,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", q.queue, err)
	}
	return nil
}

// Close closes the connection.
func (q *Queue) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}
