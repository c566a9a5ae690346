package navigator

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/mqtt"
)

// Publisher is the part of the MQTT client the sink needs.
// *mqtt.Client satisfies it.
type Publisher interface {
	PublishAsync(topic string, payload []byte, retained bool) error
}

// occupancyMessage is the retained payload on a facility occupancy topic.
type occupancyMessage struct {
	FacilityID string    `json:"facility_id"`
	Name       string    `json:"name"`
	Total      int       `json:"total"`
	Occupied   int       `json:"occupied"`
	Free       int       `json:"free"`
	At         time.Time `json:"at"`
}

// MQTTSink publishes navigator events to the broker.
//
// Vehicle frames go to the retained state topic at most once per telemetry
// interval. Arrivals, routes and live occupancy are always published.
// Publishing never waits for the broker.
type MQTTSink struct {
	pub      Publisher
	topics   mqtt.Topics
	throttle *throttle
	logger   *logging.Logger
}

// NewMQTTSink creates an MQTT sink.
func NewMQTTSink(pub Publisher, interval time.Duration, logger *logging.Logger) *MQTTSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &MQTTSink{
		pub:      pub,
		throttle: newThrottle(interval),
		logger:   logger,
	}
}

func (s *MQTTSink) VehicleMoved(f VehicleFrame) {
	if !s.throttle.allow(f.At) {
		return
	}
	s.publishJSON(s.topics.VehicleState(), f, true)
}

func (s *MQTTSink) Arrived(e ArrivalEvent) {
	s.publishJSON(s.topics.VehicleArrived(), e, false)
	// the next frame carries the settled position
	s.throttle.reset()
}

func (s *MQTTSink) DetailChanged(f DetailFrame) {
	if f.Summary == nil {
		return
	}
	s.publishJSON(s.topics.FacilityOccupancy(f.Facility.ID), occupancyMessage{
		FacilityID: f.Facility.ID,
		Name:       f.Facility.Name,
		Total:      f.Summary.Total,
		Occupied:   f.Summary.Occupied,
		Free:       f.Summary.Free,
		At:         f.At,
	}, true)
}

func (s *MQTTSink) RouteSelected(r geo.Route) {
	payload, err := r.GeoJSON()
	if err != nil {
		s.logger.Warn("encoding route", "facility", r.FacilityID, "error", err)
		return
	}
	s.publish(s.topics.VehicleRoute(), payload, true)
}

func (s *MQTTSink) publishJSON(topic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encoding MQTT payload", "topic", topic, "error", err)
		return
	}
	s.publish(topic, payload, retained)
}

func (s *MQTTSink) publish(topic string, payload []byte, retained bool) {
	err := s.pub.PublishAsync(topic, payload, retained)
	switch {
	case err == nil:
	case errors.Is(err, mqtt.ErrNotConnected):
		// paho reconnects on its own; state topics are refreshed on the next frame
		s.logger.Debug("MQTT publish skipped while disconnected", "topic", topic)
	default:
		s.logger.Warn("MQTT publish failed", "topic", topic, "error", err)
	}
}
