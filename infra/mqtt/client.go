package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/core/monitoring"
	coremqtt "github.com/kilianp07/battery-health/core/mqtt"
	"github.com/kilianp07/battery-health/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
// Publication is disabled when Broker is empty.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Topic      string `json:"topic"`
	QoS        byte   `json:"qos"`
	Retain     bool   `json:"retain"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	// StatusTopic receives "online" on connect and, as last will, "offline".
	StatusTopic string      `json:"status_topic"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults applies defaults for optional fields.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "battery/telemetry"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the TLS and QoS settings of an enabled configuration.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2")
	}
	if c.UseTLS && c.TLSConfig == nil && (c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "") {
		return fmt.Errorf("tls requires client_cert, client_key and ca_bundle")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoClient publishes telemetry readings using Eclipse Paho.
type PahoClient struct {
	cli         pahoClient
	clientID    string
	topic       string
	qos         byte
	retain      bool
	statusTopic string
	logger      logger.Logger
	maxRetries  int
	backoff     time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Message is the JSON payload published for each reading.
type Message struct {
	MessageID string        `json:"message_id"`
	Source    string        `json:"source"`
	Reading   model.Reading `json:"reading"`
}

// NewPahoClient connects to the MQTT broker.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "battery-health-" + uuid.NewString()
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger := logger.New("mqtt_client")
	pc := &PahoClient{
		clientID:    cfg.ClientID,
		topic:       cfg.Topic,
		qos:         cfg.QoS,
		retain:      cfg.Retain,
		statusTopic: cfg.StatusTopic,
		logger:      logger,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		logger.Infof("MQTT connected")
		if pc.statusTopic == "" {
			return
		}
		if token := c.Publish(pc.statusTopic, 1, true, "online"); token.Wait() && token.Error() != nil {
			logger.Errorf("status publish error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.StatusTopic != "" {
		opts.SetWill(cfg.StatusTopic, "offline", 1, true)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// PublishReading sends r to the telemetry topic, retrying with exponential
// backoff. The final failure is reported to the monitor.
func (p *PahoClient) PublishReading(r model.Reading) (string, error) {
	if p.cli == nil || !p.cli.IsConnected() {
		return "", coremqtt.ErrNotConnected
	}
	msg := Message{MessageID: uuid.NewString(), Source: p.clientID, Reading: r}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return msg.MessageID, nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": p.topic})
	return "", publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli == nil || !p.cli.IsConnected() {
		return
	}
	if p.statusTopic != "" {
		p.cli.Publish(p.statusTopic, 1, true, "offline").WaitTimeout(time.Second)
	}
	p.cli.Disconnect(250)
}
