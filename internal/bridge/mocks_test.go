package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-irrigation/internal/resource"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu         sync.Mutex
	published  []mockPublish
	handlers   map[string]mqtt.MessageHandler
	publishErr error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, topic)
	return nil
}

// GetPublished returns publishes to topic.
func (m *MockMQTTClient) GetPublished(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockMQTTClient) hasHandler(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handlers[topic]
	return ok
}

// SimulateMessage delivers payload to the handler subscribed on topic.
func (m *MockMQTTClient) SimulateMessage(topic string, payload []byte) error {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return errors.New("no handler for " + topic)
	}
	return handler(topic, payload)
}

// MockMetrics implements MetricsWriter for testing.
type MockMetrics struct {
	mu         sync.Mutex
	conditions []influxdb.ConditionsSample
	forecasts  [][]influxdb.ForecastSample
	watering   []influxdb.WateringSample
}

func (m *MockMetrics) WriteConditions(s influxdb.ConditionsSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conditions = append(m.conditions, s)
}

func (m *MockMetrics) WriteForecast(samples []influxdb.ForecastSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts = append(m.forecasts, samples)
}

func (m *MockMetrics) WriteWatering(s influxdb.WateringSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watering = append(m.watering, s)
}

// MockController implements Controller for testing.
type MockController struct {
	mu sync.Mutex

	id         string
	zones      []*resource.Zone
	schedule   resource.CurrentSchedule
	conditions resource.Conditions
	forecast   []resource.Forecast

	readErr    error
	commandErr error

	// calls records commands as "name" or "name:duration".
	calls []string
}

func (m *MockController) ID() string { return m.id }

func (m *MockController) Zones(context.Context) ([]*resource.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zones, m.readErr
}

func (m *MockController) CurrentSchedule(context.Context) (resource.CurrentSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule, m.readErr
}

func (m *MockController) CurrentConditions(context.Context, resource.Units) (resource.Conditions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conditions, m.readErr
}

func (m *MockController) Forecast(context.Context, time.Time, time.Time, resource.Units) ([]resource.Forecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forecast, m.readErr
}

func (m *MockController) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.commandErr
}

func (m *MockController) StopWater(context.Context) error  { return m.record(CommandStopWater) }
func (m *MockController) StandbyOn(context.Context) error  { return m.record(CommandStandbyOn) }
func (m *MockController) StandbyOff(context.Context) error { return m.record(CommandStandbyOff) }
func (m *MockController) RainDelayCancel(context.Context) error {
	return m.record(CommandRainDelayCancel)
}
func (m *MockController) ResumeZoneRun(context.Context) error { return m.record(CommandResumeZoneRun) }

func (m *MockController) RainDelay(_ context.Context, d time.Duration) error {
	if d < 0 || d > resource.MaxRainDelay {
		return resource.ErrInvalidDuration
	}
	return m.record(CommandRainDelay + ":" + d.String())
}

func (m *MockController) PauseZoneRun(_ context.Context, d time.Duration) error {
	if d < 0 || d > resource.MaxPause {
		return resource.ErrInvalidDuration
	}
	return m.record(CommandPauseZoneRun + ":" + d.String())
}

func (m *MockController) setSchedule(s resource.CurrentSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = s
}

func (m *MockController) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// gatedController holds the next gated call open until release is closed.
// CurrentSchedule reads the schedule before blocking, so the caller sees the
// state as it was when the call began.
type gatedController struct {
	*MockController

	gateSchedule atomic.Bool
	gateStop     atomic.Bool
	entered      chan struct{}
	release      chan struct{}
}

func newGatedController(m *MockController) *gatedController {
	return &gatedController{
		MockController: m,
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (g *gatedController) CurrentSchedule(ctx context.Context) (resource.CurrentSchedule, error) {
	sched, err := g.MockController.CurrentSchedule(ctx)
	if g.gateSchedule.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return sched, err
}

func (g *gatedController) StopWater(ctx context.Context) error {
	if g.gateStop.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.MockController.StopWater(ctx)
}

// recordingStore is a datastore.Store capturing writes, used by zones.
type recordingStore struct {
	mu     sync.Mutex
	writes []recordedWrite
}

type recordedWrite struct {
	template string
	args     datastore.Args
}

func (s *recordingStore) Fetch(context.Context, string, datastore.Args) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (s *recordingStore) Write(_ context.Context, template string, args datastore.Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, recordedWrite{template: template, args: args})
	return nil
}

func (s *recordingStore) getWrites() []recordedWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedWrite(nil), s.writes...)
}

// testZone builds a zone whose commands go to store.
func testZone(store datastore.Store, id string, number int, runtime time.Duration) *resource.Zone {
	return &resource.Zone{
		Resource: resource.NewResource(id, resource.ZoneTemplate, store),
		Number:   number,
		Name:     "Zone " + id,
		Enabled:  true,
		Runtime:  runtime,
	}
}
