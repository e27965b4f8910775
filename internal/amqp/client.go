// Package amqp publishes and consumes moneta's domain events over RabbitMQ.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionCreated publishes a transaction.created event. A nil
// client is a no-op so callers can run without a broker.
func (c *Client) PublishTransactionCreated(ctx context.Context, id, userID int64, source string) error {
	if c == nil {
		return nil
	}
	msg := NewTransactionCreatedMessage(id, userID, source)
	body, err := wrap(KindTransactionCreated, msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction created event",
		"id", id,
		"user_id", userID,
		"source", source,
		"exchange", c.exchangeName)
	return nil
}

// PublishBudgetAlert publishes a budget.alert event. A nil client is a no-op.
func (c *Client) PublishBudgetAlert(ctx context.Context, budgetID, userID int64, percentage float64, exceeded bool) error {
	if c == nil {
		return nil
	}
	msg := NewBudgetAlertMessage(budgetID, userID, percentage, exceeded)
	body, err := wrap(KindBudgetAlert, msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published budget alert event",
		"budget_id", budgetID,
		"user_id", userID,
		"percentage", percentage,
		"exceeded", exceeded)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Handler receives decoded events. Either field may be left nil by the
// dispatcher depending on the envelope kind.
type Handler struct {
	OnTransactionCreated func(*TransactionCreatedMessage) error
	OnBudgetAlert        func(*BudgetAlertMessage) error
}

// Consume blocks reading events from the queue until ctx is cancelled.
// Handler failures are nacked with requeue; undecodable messages are dropped.
func (c *Client) Consume(ctx context.Context, h Handler) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(delivery.Body, h); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event", "error", err)
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) dispatch(body []byte, h Handler) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Not requeued; a malformed message will never decode.
		slog.Error("Dropping undecodable event", "error", err)
		return nil
	}

	switch env.Kind {
	case KindTransactionCreated:
		if h.OnTransactionCreated == nil {
			return nil
		}
		msg, err := TransactionCreatedMessageFromJSON(env.Payload)
		if err != nil {
			slog.Error("Dropping malformed transaction event", "error", err)
			return nil
		}
		return h.OnTransactionCreated(msg)
	case KindBudgetAlert:
		if h.OnBudgetAlert == nil {
			return nil
		}
		msg, err := BudgetAlertMessageFromJSON(env.Payload)
		if err != nil {
			slog.Error("Dropping malformed budget alert event", "error", err)
			return nil
		}
		return h.OnBudgetAlert(msg)
	default:
		slog.Warn("Dropping event of unknown kind", "kind", env.Kind)
		return nil
	}
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
