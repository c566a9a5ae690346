package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
)

// Client is the ParkPilot broker connection. It publishes vehicle and
// facility state and carries inbound commands.
//
// The broker sees the process through parkpilot/system/status: "online" on
// every (re)connect, "offline" on Close, and the same "offline" body as the
// last will if the process dies.
//
// All methods are safe for concurrent use. Subscriptions survive reconnects.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	subMu         sync.RWMutex
	subscriptions map[string]subscription

	connected atomic.Bool
	connects  atomic.Uint64

	hookMu       sync.RWMutex
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

// Logger receives handler failures and async publish errors.
// *logging.Logger and *slog.Logger both satisfy it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// MessageHandler handles one inbound message. paho calls it on its own
// goroutine. A returned error is logged and the message is still acked.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker described by cfg, registers the last will and
// waits up to defaultConnectTimeout for the first CONNACK.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onBrokerConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onBrokerLost(err) })

	c.client = pahomqtt.NewClient(opts)
	if err := waitToken(c.client.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}

	// OnConnect may still be in flight.
	c.connected.Store(true)
	return c, nil
}

func (c *Client) onBrokerConnect() {
	c.connected.Store(true)
	c.connects.Add(1)

	c.resubscribe()
	c.publishStatus(statusOnline, "")

	c.hookMu.RLock()
	hook := c.onConnect
	c.hookMu.RUnlock()
	if hook != nil {
		hook()
	}
}

func (c *Client) onBrokerLost(err error) {
	c.connected.Store(false)
	c.logWarn("MQTT connection lost", "error", err)

	c.hookMu.RLock()
	hook := c.onDisconnect
	c.hookMu.RUnlock()
	if hook != nil {
		hook(err)
	}
}

// resubscribe replays tracked subscriptions. Failures wait for the next
// reconnect.
func (c *Client) resubscribe() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for topic, sub := range c.subscriptions {
		c.client.Subscribe(topic, sub.qos, c.wrapHandler(sub.handler))
	}
}

func (c *Client) publishStatus(status, reason string) pahomqtt.Token {
	body := buildStatusPayload(status, c.cfg.Broker.ClientID, reason)
	return c.client.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, body)
}

// Close announces a graceful shutdown on the status topic and disconnects.
// Nil and never-connected clients return nil.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishStatus(statusOffline, reasonShutdown).WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the client believes the broker is reachable.
func (c *Client) IsConnected() bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.connected.Load() && c.client.IsConnected()
}

// Reconnects counts connections restored after a loss.
func (c *Client) Reconnects() uint64 {
	if c == nil {
		return 0
	}
	if n := c.connects.Load(); n > 1 {
		return n - 1
	}
	return 0
}

// SetOnConnect registers a hook run after every (re)connect, once
// subscriptions have been replayed.
func (c *Client) SetOnConnect(hook func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onConnect = hook
}

// SetOnDisconnect registers a hook run when the connection drops.
func (c *Client) SetOnDisconnect(hook func(err error)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onDisconnect = hook
}

// SetLogger sets where handler errors and async publish failures go.
// Without one they are dropped.
func (c *Client) SetLogger(logger Logger) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.logger = logger
}

func (c *Client) logWarn(msg string, args ...any) {
	c.hookMu.RLock()
	logger := c.logger
	c.hookMu.RUnlock()
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func (c *Client) logError(msg string, args ...any) {
	c.hookMu.RLock()
	logger := c.logger
	c.hookMu.RUnlock()
	if logger != nil {
		logger.Error(msg, args...)
	}
}

// wrapHandler adapts a MessageHandler to paho, logging returned errors and
// recovering panics so one bad command cannot kill paho's router.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logError("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logWarn("MQTT handler returned error", "topic", msg.Topic(), "error", err)
		}
	}
}
