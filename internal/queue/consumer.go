package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrderHandler reacts to order lifecycle events pulled off the broker.
// HandleOrderPaid fires for order.paid and HandleOrderProcessing for
// order.processing; both are expected to be idempotent because the
// broker may redeliver.
type OrderHandler interface {
	HandleOrderPaid(ctx context.Context, orderID uint64) error
	HandleOrderProcessing(ctx context.Context, orderID uint64) error
}

// StartOrderConsumer connects to RabbitMQ, declares the order.paid and
// order.processing queues (durable), and consumes both. The function
// runs a reconnect loop with exponential backoff and never returns
// under normal operation; processing errors are logged and the message
// is rejected without requeue so a poison message cannot stall the
// queue.
func StartOrderConsumer(h OrderHandler, logger *zap.Logger) error {
	url := BrokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("order-consumer: dial failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, h, logger); err != nil {
			logger.Warn("order-consumer: consume loop ended, reconnecting", zap.Error(err))
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, h OrderHandler, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		logger.Warn("order-consumer: set QoS failed", zap.Error(err))
	}

	for _, name := range []string{QueueOrderPaid, QueueOrderProcessing} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	paid, err := ch.Consume(QueueOrderPaid, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueOrderPaid, err)
	}
	processing, err := ch.Consume(QueueOrderProcessing, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueOrderProcessing, err)
	}

	for {
		select {
		case d, ok := <-paid:
			if !ok {
				return errors.New("paid deliveries channel closed")
			}
			dispatch(d, QueueOrderPaid, h, logger)
		case d, ok := <-processing:
			if !ok {
				return errors.New("processing deliveries channel closed")
			}
			dispatch(d, QueueOrderProcessing, h, logger)
		}
	}
}

func dispatch(d amqp.Delivery, queueName string, h OrderHandler, logger *zap.Logger) {
	var ev OrderEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		logger.Error("order-consumer: bad payload",
			zap.String("queue", queueName), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if ev.OrderID == 0 {
		logger.Error("order-consumer: missing order_id", zap.String("queue", queueName))
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error
	switch queueName {
	case QueueOrderPaid:
		err = h.HandleOrderPaid(ctx, ev.OrderID)
	case QueueOrderProcessing:
		err = h.HandleOrderProcessing(ctx, ev.OrderID)
	}
	if err != nil {
		logger.Error("order-consumer: handle event failed",
			zap.String("queue", queueName),
			zap.Uint64("order_id", ev.OrderID),
			zap.Error(err))
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}
