package monitor

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// DefaultPublishTimeout bounds the wait for a publication to be handed over.
const DefaultPublishTimeout = time.Second

// mqttClient is the part of paho.Client used by MQTTPublisher.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes readings as JSON documents on a topic.
type MQTTPublisher struct {
	client  mqttClient
	topic   string
	timeout time.Duration
}

// NewMQTTPublisher connects to broker (e.g. "tcp://localhost:1883").
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			glog.Warningf("mqtt connection lost: %v", err)
		})
	c := paho.NewClient(opts)
	token := c.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("monitor: connect %s: %w", broker, err)
	}
	glog.Infof("mqtt connected to %s", broker)
	return &MQTTPublisher{client: c, topic: topic, timeout: DefaultPublishTimeout}, nil
}

type readingJSON struct {
	Timer   uint16 `json:"timer"`
	Compare uint16 `json:"compare"`
	Period  uint16 `json:"period"`
	Sensor  uint16 `json:"sensor"`
	Duty    uint32 `json:"duty"`
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(r Reading) error {
	payload, err := json.Marshal(readingJSON{
		Timer:   r.Timer,
		Compare: r.Compare,
		Period:  r.Period,
		Sensor:  r.Sensor,
		Duty:    r.Duty(),
	})
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("monitor: publish to %s timed out", p.topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
