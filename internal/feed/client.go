package feed

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// Default connection settings.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultKeepAlive      = 60 * time.Second
	quiesceMillis         = 250
)

// Sink receives everything the client learns from the broker.
// engine.Session satisfies it.
type Sink interface {
	Ingest(payload []byte)
	MarkConnected()
	MarkDisconnected(reason string)
	SetSubscriptions(topics []string)
}

// Options configures a Client.
type Options struct {
	Broker    string
	Transport Transport
	Port      int
	// ClientID defaults to "pskrmon-" plus a random suffix.
	ClientID string

	Mode      types.MonitorMode
	Callsign  string
	Direction types.Direction
	// Modes limits the subscription to these operating modes.
	Modes []string

	TLSInsecureSkipVerify bool
	ConnectTimeout        time.Duration
}

// Client is a reconnecting MQTT subscriber.
type Client struct {
	url      string
	clientID string
	topics   []string
	timeout  time.Duration
	sink     Sink

	client mqtt.Client

	mu     sync.Mutex
	closed bool
}

// New builds a Client. It does not connect.
func New(opts Options, sink Sink) (*Client, error) {
	if sink == nil {
		return nil, errors.New("feed: sink is required")
	}
	if opts.Transport == "" {
		opts.Transport = TransportMQTT
	}
	url, err := BrokerURL(opts.Transport, opts.Broker, opts.Port)
	if err != nil {
		return nil, err
	}
	topics := Topics(opts.Mode, opts.Callsign, opts.Direction, opts.Modes)
	if len(topics) == 0 {
		return nil, fmt.Errorf("feed: no topics for mode %q direction %q", opts.Mode, opts.Direction)
	}
	if opts.ClientID == "" {
		opts.ClientID = "pskrmon-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	c := &Client{
		url:      url,
		clientID: opts.ClientID,
		topics:   topics,
		timeout:  opts.ConnectTimeout,
		sink:     sink,
	}

	mo := mqtt.NewClientOptions().
		AddBroker(url).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(opts.ConnectTimeout).
		SetKeepAlive(DefaultKeepAlive).
		SetOrderMatters(true).
		SetDefaultPublishHandler(c.onMessage).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			slog.Info("feed: reconnecting", "broker", url)
		})
	if opts.Transport.Secure() {
		mo.SetTLSConfig(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: opts.TLSInsecureSkipVerify,
		})
	}
	c.client = mqtt.NewClient(mo)
	return c, nil
}

// URL returns the broker URL the client dials.
func (c *Client) URL() string { return c.url }

// Topics returns the topic filters the client subscribes to.
func (c *Client) Topics() []string { return append([]string(nil), c.topics...) }

// Connect dials the broker and waits for the first connection, the connect
// timeout or ctx, whichever comes first. Reconnects after that are automatic.
func (c *Client) Connect(ctx context.Context) error {
	slog.Info("feed: connecting", "broker", c.url, "client_id", c.clientID, "topics", c.topics)
	token := c.client.Connect()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("feed: connect %s: %w", c.url, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("feed: connect %s: timed out after %s", c.url, c.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.client.Disconnect(quiesceMillis)
	c.sink.SetSubscriptions(nil)
	c.sink.MarkDisconnected("client closed")
	slog.Info("feed: disconnected", "broker", c.url)
}

// onConnect runs on every successful (re)connect. paho calls it on its own
// goroutine, so waiting on the subscribe token here is fine.
func (c *Client) onConnect(cl mqtt.Client) {
	c.sink.MarkConnected()

	filters := make(map[string]byte, len(c.topics))
	for _, t := range c.topics {
		filters[t] = 0
	}
	token := cl.SubscribeMultiple(filters, nil)
	if !token.WaitTimeout(c.timeout) {
		slog.Error("feed: subscribe timed out", "topics", c.topics)
		return
	}
	if err := token.Error(); err != nil {
		slog.Error("feed: subscribe failed", "topics", c.topics, "err", err)
		return
	}
	c.sink.SetSubscriptions(c.topics)
	slog.Info("feed: subscribed", "topics", c.topics)
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	reason := "connection lost"
	if err != nil {
		reason = err.Error()
	}
	c.sink.SetSubscriptions(nil)
	c.sink.MarkDisconnected(reason)
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	c.sink.Ingest(msg.Payload())
}
