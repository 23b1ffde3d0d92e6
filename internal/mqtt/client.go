package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"controlling_window/internal/logger"
	"controlling_window/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // ms
)

// Config holds broker connection settings.
type Config struct {
	Broker      string
	ClientID    string
	SensorTopic string
	StatusTopic string
	SystemTopic string
	MaxAge      time.Duration // sensor readings older than this are rejected
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = "window-controller"
	}
	if c.SensorTopic == "" {
		c.SensorTopic = DefaultSensorTopic
	}
	if c.StatusTopic == "" {
		c.StatusTopic = DefaultStatusTopic
	}
	if c.SystemTopic == "" {
		c.SystemTopic = DefaultSystemTopic
	}
	return c
}

// Client is a connected broker session.
type Client struct {
	client paho.Client
	cfg    Config
	log    *logger.Logger
	feed   *SensorFeed
}

// Connect dials the broker. The broker publishes a retained OFFLINE event on
// the system topic if the connection drops.
func Connect(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is not configured")
	}
	log = log.Component("mqtt")
	cfg = cfg.withDefaults()

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: SystemOffline})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	c := &Client{cfg: cfg, log: log, feed: NewSensorFeed(cfg.MaxAge, log)}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(cfg.SystemTopic, will, 1, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("mqtt_connection_lost", "broker", cfg.Broker, "err", err)
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to broker %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

// onConnect (re)subscribes the sensor topic after every connect.
func (c *Client) onConnect(client paho.Client) {
	token := client.Subscribe(c.cfg.SensorTopic, 1, c.feed.onMessage)
	if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		c.log.Errorw("mqtt_subscribe_failed", "topic", c.cfg.SensorTopic, "err", token.Error())
		return
	}
	c.log.Infow("mqtt_subscribed", "topic", c.cfg.SensorTopic)
}

// Feed is the sensor fed by the sensor topic.
func (c *Client) Feed() *SensorFeed { return c.feed }

// Record publishes a status sample, retained so late subscribers see the latest one.
func (c *Client) Record(ctx context.Context, s models.SensorSample) error {
	payload, err := FormatStatusPayload(s)
	if err != nil {
		return fmt.Errorf("format status payload: %w", err)
	}
	return c.publish(ctx, c.cfg.StatusTopic, 0, true, payload)
}

// PublishSystem sends a lifecycle event at QoS 1.
func (c *Client) PublishSystem(ctx context.Context, ev SystemEvent) error {
	payload, err := FormatSystemPayload(ev)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return c.publish(ctx, c.cfg.SystemTopic, 1, true, payload)
}

func (c *Client) publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	timeout := publishTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.client.Disconnect(disconnectQuiesce)
	return nil
}
