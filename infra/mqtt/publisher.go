// Package mqtt bridges planning progress events to an MQTT broker so a
// live-reporting layer can follow long runs.
package mqtt

import (
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/aseptiq/fillsched/core/logger"
	"github.com/aseptiq/fillsched/core/strategy"
)

// Config defines the connection parameters for the progress publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fillsched"
	}
	if c.Topic == "" {
		c.Topic = "fillsched/progress"
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher forwards progress events to the configured topic. It satisfies
// strategy.ProgressSink; publishing is fire-and-forget so a slow broker
// never stalls planning.
type Publisher struct {
	cli   pahoClient
	topic string
	qos   byte
	log   logger.Logger
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(cfg Config, log logger.Logger) (*Publisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("mqtt connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{cli: c, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

// Publish implements strategy.ProgressSink.
func (p *Publisher) Publish(ev strategy.ProgressEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("marshal progress event: %v", err)
		return
	}
	p.cli.Publish(p.topic, p.qos, false, payload)
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
