package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
)

// Routing keys for customization lifecycle events
const (
	EventRequestClosed    = "customization.request.closed"
	EventResponseAccepted = "customization.response.accepted"
	EventResponseDeclined = "customization.response.declined"
)

// EventPublisher publishes domain events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// Event is the envelope written to the exchange
type Event struct {
	ID         string    `json:"id"`
	Pattern    string    `json:"pattern"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// RequestClosedEvent is published when a customer closes a request
type RequestClosedEvent struct {
	RequestID    uint  `json:"request_id"`
	CustomerID   uint  `json:"customer_id"`
	AutoDeclined int64 `json:"auto_declined"`
}

// ResponseAcceptedEvent is published once an offer has become an order
type ResponseAcceptedEvent struct {
	ResponseID  uint            `json:"response_id"`
	RequestID   uint            `json:"request_id"`
	OrderID     uint            `json:"order_id"`
	ProductID   uint            `json:"product_id"`
	ArtistID    uint            `json:"artist_id"`
	CustomerID  uint            `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ResponseDeclinedEvent is published when a customer declines an offer
type ResponseDeclinedEvent struct {
	ResponseID uint `json:"response_id"`
	RequestID  uint `json:"request_id"`
	ArtistID   uint `json:"artist_id"`
}

func newEvent(routingKey string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Pattern:    routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

var eventPublisherInstance EventPublisher = NoopEventPublisher{}

// GetEventPublisher returns the configured event publisher
func GetEventPublisher() EventPublisher {
	return eventPublisherInstance
}

// SetEventPublisher sets the event publisher instance
func SetEventPublisher(p EventPublisher) {
	eventPublisherInstance = p
}

// RabbitMQPublisher publishes JSON events to a topic exchange. A dropped
// connection is noticed through NotifyClose and redialed on the next publish.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	channel  *amqp.Channel
	closed   bool

	dial func(url string) (*amqp.Connection, error)
}

// NewRabbitMQPublisher dials amqpURL and declares a durable topic exchange
func NewRabbitMQPublisher(amqpURL, exchange string) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{url: amqpURL, exchange: exchange, dial: amqp.Dial}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held
func (p *RabbitMQPublisher) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = channel
	go p.watch(conn, conn.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// watch forgets conn once the broker or the network drops it
func (p *RabbitMQPublisher) watch(conn *amqp.Connection, closed <-chan *amqp.Error) {
	reason, ok := <-closed
	if !ok {
		return // closed by us
	}
	log.Printf("RabbitMQ connection lost, will redial on next publish: %v", reason)
	p.dropConnection(conn)
}

func (p *RabbitMQPublisher) dropConnection(conn *amqp.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.conn = nil
		p.channel = nil
	}
}

// Publish marshals data into an Event and publishes it with routingKey.
// amqp channels are not safe for concurrent publishing, hence the lock.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(newEvent(routingKey, data))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("event publisher is closed")
	}
	if p.channel == nil {
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		log.Printf("Reconnected to RabbitMQ exchange %s", p.exchange)
	}

	err = p.channel.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			p.conn = nil
			p.channel = nil
		}
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("Published %s to exchange %s", routingKey, p.exchange)
	return nil
}

// Close closes the channel and connection and stops any further redial
func (p *RabbitMQPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn = nil
	p.channel = nil
}

// NoopEventPublisher drops events. Used when RABBITMQ_URL is not set.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, string, any) error { return nil }

// MockEventPublisher records published events for tests
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMockEventPublisher creates a new mock publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(_ context.Context, routingKey string, data any) error {
	m.mu.Lock()
	m.events = append(m.events, newEvent(routingKey, data))
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events
func (m *MockEventPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
