package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/grid-status/internal/logic"
)

// BufferCapacity is how many messages are held while the broker is unreachable.
const BufferCapacity = 1000

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	connects  int
	now       func() time.Time

	// statusPayload renders the status snapshot carried by RECONNECTED.
	statusPayload func(event string) []byte
}

// WillPayload returns the retained last-will message the broker publishes
// on TopicSystem if this process disappears without a clean disconnect.
func WillPayload() ([]byte, error) {
	return FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "connection_lost"})
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{
		topic: Topic,
		buf:   newRingBuffer(BufferCapacity),
		now:   time.Now,
	}

	will, err := WillPayload()
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	client := paho.NewClient(opts)
	p.client = client

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	p.connects++
	reconnect := p.connects > 1
	pending, dropped := p.buf.drainAll()
	p.mu.Unlock()

	if !reconnect {
		log.Printf("mqtt: connected")
		return
	}

	log.Printf("mqtt: reconnected, replaying %d buffered messages (%d dropped)", len(pending), dropped)
	for _, m := range pending {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay failed on %s: %v", m.topic, err)
		}
	}

	payload, err := p.reconnectedPayload()
	if err != nil {
		log.Printf("mqtt: format reconnected payload: %v", err)
		return
	}
	// Retained so it replaces the OFFLINE will left by the broker.
	c.Publish(TopicSystem, 1, true, payload)
}

// SetStatusPayload installs the formatter for the status snapshot published
// with RECONNECTED. Without one the event is published bare.
func (p *RealPublisher) SetStatusPayload(fn func(event string) []byte) {
	p.mu.Lock()
	p.statusPayload = fn
	p.mu.Unlock()
}

func (p *RealPublisher) reconnectedPayload() ([]byte, error) {
	p.mu.Lock()
	fn := p.statusPayload
	p.mu.Unlock()

	event := SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}
	if fn != nil {
		event.RawPayload = fn("RECONNECTED")
	}
	return FormatSystemPayload(event)
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.connected {
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a grid transition to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1: outages are rare and each one matters to subscribers.
	return p.send(p.topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if err := p.send(TopicSystem, 1, event.Retained, payload); err != nil {
		return fmt.Errorf("system %s: %w", event.Event, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
