package mqtt

import "fmt"

// Topic prefixes. Everything ParkPilot publishes or listens to lives under
// TopicPrefix.
const (
	// TopicPrefix is the root of the ParkPilot topic tree.
	TopicPrefix = "parkpilot"

	// TopicPrefixVehicle is the base for simulated vehicle topics.
	TopicPrefixVehicle = "parkpilot/vehicle"

	// TopicPrefixFacility is the base for per-facility topics.
	TopicPrefixFacility = "parkpilot/facility"

	// TopicPrefixCommand is the base for inbound control topics.
	TopicPrefixCommand = "parkpilot/command"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "parkpilot/system"
)

// Topics provides builders for ParkPilot MQTT topics.
//
//	topics := mqtt.Topics{}
//	topic := topics.FacilityOccupancy("lot_st_thomas")
//	// Returns: "parkpilot/facility/lot_st_thomas/occupancy"
type Topics struct{}

// VehicleState is the retained position/heading/mode of the vehicle.
//
// Example: parkpilot/vehicle/state
func (Topics) VehicleState() string {
	return fmt.Sprintf("%s/state", TopicPrefixVehicle)
}

// VehicleRoute is the retained route line to the selected facility.
//
// Example: parkpilot/vehicle/route
func (Topics) VehicleRoute() string {
	return fmt.Sprintf("%s/route", TopicPrefixVehicle)
}

// VehicleEvent returns the topic for a vehicle event.
//
// Example: parkpilot/vehicle/event/arrived
func (Topics) VehicleEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixVehicle, eventType)
}

// VehicleArrived is VehicleEvent("arrived").
func (t Topics) VehicleArrived() string {
	return t.VehicleEvent("arrived")
}

// FacilityOccupancy is the retained free/occupied summary of one facility.
//
// Example: parkpilot/facility/lot_st_thomas/occupancy
func (Topics) FacilityOccupancy(facilityID string) string {
	return fmt.Sprintf("%s/%s/occupancy", TopicPrefixFacility, facilityID)
}

// Command returns the inbound control topic for a command name.
//
// Example: parkpilot/command/autodrive
func (Topics) Command(name string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixCommand, name)
}

// SystemStatus returns the online/offline status topic.
//
// Example: parkpilot/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllCommands matches every inbound control topic.
//
// Pattern: parkpilot/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/+", TopicPrefixCommand)
}

// CommandName extracts the last level of a command topic.
// It returns "" when topic is not under TopicPrefixCommand.
//
// Example: "parkpilot/command/key" -> "key"
func (Topics) CommandName(topic string) string {
	prefix := TopicPrefixCommand + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}
