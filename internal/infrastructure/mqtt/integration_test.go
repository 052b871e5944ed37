//go:build integration

package mqtt

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/config"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//
//	go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func connectT(t *testing.T, clientID string, topics Topics) *Client {
	t.Helper()
	client, err := Connect(integrationConfig(clientID), topics)
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestIntegration_PublishSubscribe(t *testing.T) {
	topics := NewTopics("irrigation-it")
	client := connectT(t, "irrigation-it-pubsub", topics)

	received := make(chan []byte, 1)
	err := client.Subscribe(topics.AllDeviceCommands(), 1, func(topic string, payload []byte) error {
		if id, ok := topics.DeviceIDFromTopic(topic); ok && id == "dev-1" {
			received <- payload
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topics.AllDeviceCommands()) {
		t.Error("subscription not tracked")
	}

	if err := client.PublishJSON(topics.DeviceCommand("dev-1"), map[string]string{"command": "stop_water"}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case payload := <-received:
		var cmd map[string]string
		if err := json.Unmarshal(payload, &cmd); err != nil || cmd["command"] != "stop_water" {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.Unsubscribe(topics.AllDeviceCommands()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}

func TestIntegration_RetainedStatus(t *testing.T) {
	topics := NewTopics("irrigation-it-status")
	_ = connectT(t, "irrigation-it-status-pub", topics)

	observer := connectT(t, "irrigation-it-status-obs", topics)

	var online atomic.Bool
	err := observer.Subscribe(topics.SystemStatus(), 1, func(_ string, payload []byte) error {
		var msg statusMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}
		if msg.Status == statusOnline {
			online.Store(true)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !online.Load() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if !online.Load() {
		t.Error("retained online status not observed")
	}
}
