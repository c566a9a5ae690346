package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/mqtt"
)

// defaultCommandTimeout bounds one MQTT command, including a layout fetch.
const defaultCommandTimeout = 5 * time.Second

// Command names under parkpilot/command/.
const (
	commandKey       = "key"
	commandAutoDrive = "autodrive"
	commandDetail    = "detail"
	commandSelect    = "select"
)

// Subscriber is the part of the MQTT client the bridge needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// commandMessage is the union of every command payload.
type commandMessage struct {
	Key        string  `json:"key"`
	Pressed    bool    `json:"pressed"`
	Action     string  `json:"action"`
	FacilityID string  `json:"facility_id"`
	Width      float64 `json:"width"`
}

// CommandBridge maps inbound MQTT commands onto a Navigator.
type CommandBridge struct {
	nav     *Navigator
	timeout time.Duration
	logger  *logging.Logger
}

// NewCommandBridge creates a bridge for nav.
func NewCommandBridge(nav *Navigator, logger *logging.Logger) *CommandBridge {
	if logger == nil {
		logger = logging.Default()
	}
	return &CommandBridge{
		nav:     nav,
		timeout: defaultCommandTimeout,
		logger:  logger,
	}
}

// Subscribe registers the bridge on parkpilot/command/+.
func (b *CommandBridge) Subscribe(sub Subscriber, qos byte) error {
	topic := mqtt.Topics{}.AllCommands()
	if err := sub.Subscribe(topic, qos, b.Handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	b.logger.Info("listening for commands", "topic", topic)
	return nil
}

// Unsubscribe stops command intake. Called on shutdown before the broker
// connection closes.
func (b *CommandBridge) Unsubscribe(sub Subscriber) error {
	topic := mqtt.Topics{}.AllCommands()
	if err := sub.Unsubscribe(topic); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", topic, err)
	}
	b.logger.Info("stopped listening for commands", "topic", topic)
	return nil
}

// Handle decodes one command and runs it. It is an mqtt.MessageHandler.
func (b *CommandBridge) Handle(topic string, payload []byte) error {
	name := mqtt.Topics{}.CommandName(topic)

	var msg commandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCommand, name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	switch name {
	case commandKey:
		if msg.Pressed {
			return b.nav.KeyDown(ctx, msg.Key)
		}
		return b.nav.KeyUp(ctx, msg.Key)

	case commandAutoDrive:
		switch msg.Action {
		case "start":
			_, err := b.nav.StartAutoDrive(ctx)
			return err
		case "cancel":
			return b.nav.CancelAutoDrive(ctx)
		}
		return fmt.Errorf("%w: autodrive action %q", ErrInvalidCommand, msg.Action)

	case commandDetail:
		if msg.Action == "close" {
			return b.nav.CloseDetail(ctx)
		}
		if msg.FacilityID == "" {
			return fmt.Errorf("%w: detail needs facility_id", ErrInvalidCommand)
		}
		return b.nav.OpenDetail(ctx, msg.FacilityID, msg.Width)

	case commandSelect:
		if msg.FacilityID == "" {
			return fmt.Errorf("%w: select needs facility_id", ErrInvalidCommand)
		}
		_, err := b.nav.SelectFacility(ctx, msg.FacilityID)
		return err
	}

	return fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, name)
}
