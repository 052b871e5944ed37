package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "irrigation"

// Topics builds the irrigation topic hierarchy under a prefix:
//
//	{prefix}/device/{id}/state     retained device snapshot
//	{prefix}/device/{id}/command   inbound commands
//	{prefix}/device/{id}/ack       command acknowledgements
//	{prefix}/system/status         bridge online/offline (retained, LWT)
type Topics struct {
	Prefix string
}

// NewTopics returns a builder for prefix, trimming surrounding slashes.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// DeviceState returns the retained state topic of a device.
//
// Example: irrigation/device/abc123/state
func (t Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", t.prefix(), deviceID)
}

// DeviceCommand returns the command topic of a device.
//
// Example: irrigation/device/abc123/command
func (t Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/command", t.prefix(), deviceID)
}

// DeviceAck returns the acknowledgement topic of a device.
//
// Example: irrigation/device/abc123/ack
func (t Topics) DeviceAck(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/ack", t.prefix(), deviceID)
}

// SystemStatus returns the bridge status topic.
//
// Example: irrigation/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}

// AllDeviceCommands matches the command topic of every device.
//
// Pattern: irrigation/device/+/command
func (t Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/device/+/command", t.prefix())
}

// AllDeviceStates matches the state topic of every device.
//
// Pattern: irrigation/device/+/state
func (t Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/device/+/state", t.prefix())
}

// DeviceIDFromTopic extracts the device id from a device topic. It reports
// false for topics outside this prefix's device hierarchy.
func (t Topics) DeviceIDFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.prefix()+"/device/")
	if !ok {
		return "", false
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
