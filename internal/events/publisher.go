// Package events publishes committed transactions to RabbitMQ so downstream
// consumers (notifications, reporting) can react without polling the ledger.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"transferd.org/internal/ledger"
	"transferd.org/internal/obs"
)

const exchangeKind = "topic"

// Publisher sends transaction events to a durable topic exchange. Routing
// keys follow ledger.transaction.<type>.<status>.
type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

var _ ledger.EventPublisher = (*Publisher)(nil)

// NewPublisher dials RabbitMQ with a bounded timeout and declares the
// exchange up front so publish failures surface at startup.
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// PublishTransaction emits a committed or failed transaction. A broken
// channel is reopened once before the error is returned.
func (p *Publisher) PublishTransaction(ctx context.Context, tx ledger.Transaction) error {
	body, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("ledger.transaction.%s.%s", tx.Type, tx.Status)
	msg := amqp091.Publishing{
		ContentType: "application/json",
		MessageId:   tx.Reference,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return err
		}
		p.channel = ch
		if exErr := p.channel.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); exErr != nil {
			return err
		}
		return p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// sanitizeURL trims stray quoting around the broker URL and rejects
// non-AMQP schemes.
func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url scheme must be amqp:// or amqps://")
	}
	return clean, nil
}

// Noop is the publisher used when no broker is configured. It logs the skip
// once per event at debug-friendly volume and never fails.
type Noop struct{}

var _ ledger.EventPublisher = Noop{}

func (Noop) PublishTransaction(ctx context.Context, tx ledger.Transaction) error {
	obs.LogRequest(map[string]any{
		"level":     "debug",
		"component": "events",
		"msg":       "publish skipped, no broker configured",
		"reference": tx.Reference,
	})
	return nil
}
