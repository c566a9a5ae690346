package mqtt

import (
	"fmt"
)

// maxPayloadSize caps a single message at 1MB.
const maxPayloadSize = 1 << 20

// Publish sends payload and waits for the broker to acknowledge it at the
// requested QoS. Retain state topics (vehicle state, occupancy, route) so a
// late subscriber sees the current value. Events and commands are not
// retained.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := c.checkPublish(topic, payload, qos); err != nil {
		return err
	}
	return waitToken(c.client.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishAsync publishes at the configured QoS without waiting for the
// broker. Validation and connection errors come back immediately; delivery
// failures go to the logger. The navigator sinks use this from the frame
// loop.
func (c *Client) PublishAsync(topic string, payload []byte, retained bool) error {
	qos := byte(c.cfg.QoS)
	if err := c.checkPublish(topic, payload, qos); err != nil {
		return err
	}

	token := c.client.Publish(topic, qos, retained, payload)
	go func() {
		if err := waitToken(token, defaultPublishTimeout, ErrPublishFailed); err != nil {
			c.logWarn("MQTT async publish failed", "topic", topic, "error", err)
		}
	}()
	return nil
}

func (c *Client) checkPublish(topic string, payload []byte, qos byte) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrPublishFailed, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}
	return nil
}
