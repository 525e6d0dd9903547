package worker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventsExchange = "backoffice.events"
	auditQueueName = "audit"
	dlxExchange    = "audit.dlx"
	dlqQueueName   = "audit.dlq"
)

// SetupRabbitMQ declares the events exchange, the audit queue and its
// dead-letter pair. Every workflow event is routed to the audit queue.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(eventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare events exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, auditQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": auditQueueName,
	}); err != nil {
		return fmt.Errorf("declare audit queue: %w", err)
	}
	if err := ch.QueueBind(auditQueueName, "#", eventsExchange, false, nil); err != nil {
		return fmt.Errorf("bind audit queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}
