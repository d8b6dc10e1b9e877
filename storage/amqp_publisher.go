package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"listing-counter/models"
)

// AMQPConfig selects the broker and destination for cycle messages.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// AMQPPublisher publishes one message per completed cycle to a topic
// exchange so other services can react to fresh counts.
type AMQPPublisher struct {
	cfg     AMQPConfig
	conn    *amqp.Connection
	channel *amqp.Channel
}

type cycleRecordDTO struct {
	Date     string `json:"date"`
	City     string `json:"city"`
	Category string `json:"category"`
	Finn     int    `json:"finn"`
	Hjem     int    `json:"hjem"`
	Total    int    `json:"total"`
}

type cycleMessage struct {
	Date    string           `json:"date"`
	Records []cycleRecordDTO `json:"records"`
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(cfg AMQPConfig) (*AMQPPublisher, error) {
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("amqp: exchange name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: declare exchange %q: %w", cfg.Exchange, err)
	}

	return &AMQPPublisher{cfg: cfg, conn: conn, channel: ch}, nil
}

func (p *AMQPPublisher) Name() string { return "amqp" }

// Write publishes records as a single persistent JSON message.
func (p *AMQPPublisher) Write(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("amqp: connection is closed")
	}

	body, err := json.Marshal(newCycleMessage(records))
	if err != nil {
		return fmt.Errorf("amqp: encode message: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp: publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		firstErr = p.channel.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newCycleMessage(records []models.Record) cycleMessage {
	msg := cycleMessage{Records: make([]cycleRecordDTO, len(records))}
	for i, r := range records {
		msg.Records[i] = cycleRecordDTO{
			Date:     r.DateString(),
			City:     r.City,
			Category: r.Category,
			Finn:     r.Finn,
			Hjem:     r.Hjem,
			Total:    r.Total,
		}
	}
	if len(records) > 0 {
		msg.Date = records[0].DateString()
	}
	return msg
}
