package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"warble/pkg/config"
	"warble/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ReconcileQueueName = "reconcile_queue"
	ReconcileExchange  = "reconciliation"

	orphanBlobRoutingKey = "orphan_blob"
)

// OrphanBlobTask names a blob left behind after its metadata record was
// removed. The path follows the media/{authorId}/{postId} convention, so a
// consumer can garbage-collect it without any record lookup.
type OrphanBlobTask struct {
	Path     string `json:"path"`
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		ReconcileExchange, // name
		"direct",          // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		ReconcileQueueName, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		ReconcileQueueName,
		orphanBlobRoutingKey,
		ReconcileExchange,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishOrphanBlob enqueues an orphaned blob path for the reconciliation
// worker. Messages are persistent so a leaked blob survives a broker restart.
func (c *Client) PublishOrphanBlob(task OrphanBlobTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	err = c.channel.Publish(
		ReconcileExchange,
		orphanBlobRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish orphan blob task for %s: %v", task.Path, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published orphan blob task: path=%s post_id=%s", task.Path, task.PostID)
	return nil
}

// ConsumeOrphanBlobs delivers queued orphan paths to handler. A handler error
// requeues the task; malformed payloads are dropped.
func (c *Client) ConsumeOrphanBlobs(handler func(task OrphanBlobTask) error) error {
	msgs, err := c.channel.Consume(
		ReconcileQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", ReconcileQueueName)

	go func() {
		for msg := range msgs {
			var task OrphanBlobTask
			if err := json.Unmarshal(msg.Body, &task); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal orphan blob task: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false)
				continue
			}

			if err := handler(task); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for path=%s: %v", task.Path, err)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}
