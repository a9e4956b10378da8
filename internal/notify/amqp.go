package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes status events to an exchange with a fixed routing key.
type AMQPNotifier struct {
	ch         Channel
	exchange   string
	routingKey string
	logger     logger.Logger
	closers    []func() error
}

func NewAMQPNotifier(ch Channel, exchange, routingKey string, log logger.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     log.WithFields(map[string]interface{}{"transport": "amqp"}),
	}
}

// DialAMQP connects to the broker and declares a durable topic exchange when
// one is named. An empty exchange publishes to the default exchange, where the
// routing key is a queue name.
func DialAMQP(url, exchange, routingKey string, log logger.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}

	n := NewAMQPNotifier(ch, exchange, routingKey, log)
	n.closers = []func() error{ch.Close, conn.Close}
	return n, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, event models.StatusChangedEvent) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewNotificationFailedError("amqp", err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewNotificationFailedError("amqp", err)
	}

	err = n.ch.Publish(n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return apperrors.NewNotificationFailedError("amqp", err)
	}

	n.logger.Debug("status event published", map[string]interface{}{
		"applicationId": event.ApplicationID,
		"routingKey":    n.routingKey,
	})
	return nil
}

func (n *AMQPNotifier) Close() error {
	var first error
	for _, c := range n.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
