// Package messaging wraps the NATS connection used to broadcast matching
// activity to other services.
package messaging

import (
	"fmt"
	"sync"
	"time"

	"company-matching/internal/common/logger"

	"github.com/nats-io/nats.go"
)

// SubjectMatchingRunCompleted carries one summary per finished matching run.
const SubjectMatchingRunCompleted = "matching.run.completed"

type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int // -1 for infinite
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "company-matching",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NATSClient wraps the NATS connection with publish/subscribe helpers.
type NATSClient struct {
	conn   *nats.Conn
	logger logger.Logger
	mu     sync.Mutex
	subs   map[string]*nats.Subscription
}

// NewNATSClient returns an error if the initial connection fails.
func NewNATSClient(cfg NATSConfig, log logger.Logger) (*NATSClient, error) {
	log = log.WithFields(map[string]interface{}{"component": "nats"})

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", map[string]interface{}{"error": err})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", map[string]interface{}{"url": nc.ConnectedUrl()})
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed", nil)
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("nats connected", map[string]interface{}{"url": nc.ConnectedUrl()})

	return &NATSClient{
		conn:   nc,
		logger: log,
		subs:   make(map[string]*nats.Subscription),
	}, nil
}

func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers handler for subject, replacing an earlier subscription
// on the same subject.
func (c *NATSClient) Subscribe(subject string, handler func(data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	old := c.subs[subject]
	c.subs[subject] = sub
	c.mu.Unlock()

	if old != nil {
		_ = old.Unsubscribe()
	}
	return nil
}

func (c *NATSClient) Connected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains all subscriptions and the connection so buffered publishes
// are flushed.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			c.logger.Warn("nats drain failed", map[string]interface{}{"subject": subject, "error": err})
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats connection drain failed", map[string]interface{}{"error": err})
	}
}
