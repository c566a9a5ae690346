// Package mqtt provides MQTT client connectivity for ParkPilot Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing vehicle and occupancy state, blocking or fire-and-forget
//   - Subscriptions to the inbound command topics
//   - Last Will and Testament (LWT) for offline detection
//
// # Topic tree
//
//	parkpilot/vehicle/state                 retained vehicle frame
//	parkpilot/vehicle/route                 retained route to the selected facility
//	parkpilot/vehicle/event/arrived         auto-drive arrival
//	parkpilot/facility/{id}/occupancy       retained free/occupied summary
//	parkpilot/command/{name}                inbound control
//	parkpilot/system/status                 online/offline (LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(topic, payload)
//	    })
//
//	_ = client.PublishAsync(mqtt.Topics{}.VehicleState(), frame, true)
package mqtt
