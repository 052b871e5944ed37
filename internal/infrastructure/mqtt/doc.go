// Package mqtt provides the MQTT client used by the irrigation bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retained state snapshots
//   - Topic subscriptions with wildcard support, restored after reconnect
//   - A retained online/offline status with Last Will and Testament
//
// # Topics
//
// All topics live under a configurable prefix (default "irrigation"):
//
//	irrigation/device/{id}/state     retained JSON snapshot of a device
//	irrigation/device/{id}/command   inbound commands for a device
//	irrigation/device/{id}/ack       command results
//	irrigation/system/status         bridge status, also the LWT topic
//
// # Security Considerations
//
//   - Enable cfg.Broker.TLS outside local development
//   - Supply credentials through IRRIGATION_MQTT_USERNAME/PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.NewTopics(cfg.Bridge.TopicPrefix))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllDeviceCommands(), 1, handler)
package mqtt
