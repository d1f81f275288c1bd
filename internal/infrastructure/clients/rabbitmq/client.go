package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/visitplanner/pkg/config"
	"github.com/zatekoja/visitplanner/pkg/retry"
)

// Client owns the broker connection
type Client struct {
	conn *amqp.Connection
}

// NewClient dials the broker with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.RabbitMQConfig) (*Client, error) {
	var conn *amqp.Connection
	err := retry.DoWithLog(ctx, retry.DefaultConfig(), "RabbitMQ", func() error {
		var err error
		conn, err = amqp.Dial(cfg.URL)
		return err
	}, retry.LogAttempts(log.Logger, "RabbitMQ"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
	}

	log.Info().Str("queue", cfg.BookingQueue).Msg("connected to RabbitMQ")
	return &Client{conn: conn}, nil
}

// Channel opens a new channel on the connection
func (c *Client) Channel() (*amqp.Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	return ch, nil
}

// Close closes the connection
func (c *Client) Close() error {
	if c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}
