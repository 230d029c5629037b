package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/metronome/internal/logic"
)

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable, messages park in a bounded backlog and replay in order when
// the connection comes back.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	pending   *backlog
	everConns int
}

// NewRealPublisher creates a publisher connected to the given broker. The
// will message tells subscribers the daemon vanished without a clean
// shutdown.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{pending: newBacklog(backlogCapacity)}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now().UTC(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(10 * time.Second) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	} else {
		// Not fatal: the client keeps retrying and messages park in
		// the backlog until the broker shows up.
		log.Printf("mqtt: broker %s not reachable yet, retrying in background", broker)
	}

	return p, nil
}

// Publish sends a tempo or beat event. QoS 0: a lost beat is stale the
// moment the next one lands.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(Topic, payload, 0, false)
}

// PublishSystem sends a system lifecycle event. QoS 1: these are rare and
// subscribers care about every one.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) send(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.pending.add(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.pending.size()
		p.mu.Unlock()
		log.Printf("mqtt: disconnected, buffered message (%d pending)", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// onConnect runs on every (re)connect: replay the backlog in order, and on
// anything after the first connect announce the recovery.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.pending.drain()
	p.everConns++
	reconnect := p.everConns > 1
	p.mu.Unlock()

	if len(msgs) > 0 {
		log.Printf("mqtt: reconnected, replaying %d buffered messages", len(msgs))
		for _, m := range msgs {
			client.Publish(m.topic, m.qos, m.retained, m.payload)
		}
	}

	if reconnect {
		payload, err := FormatSystemPayload(SystemEvent{
			Timestamp: time.Now().UTC(),
			Event:     "RECONNECTED",
		})
		if err == nil {
			client.Publish(TopicSystem, 1, false, payload)
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
