package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-irrigation/internal/resource"
)

const (
	// DefaultPollSchedule is used when Options.Schedule is empty.
	DefaultPollSchedule = "@every 30s"

	pollTimeout    = 20 * time.Second
	commandTimeout = 10 * time.Second

	qosAtLeastOnce = 1
)

// Controller is the device surface the bridge drives. *resource.Device
// satisfies it.
type Controller interface {
	ID() string
	Zones(ctx context.Context) ([]*resource.Zone, error)
	CurrentSchedule(ctx context.Context) (resource.CurrentSchedule, error)
	CurrentConditions(ctx context.Context, units resource.Units) (resource.Conditions, error)
	Forecast(ctx context.Context, start, end time.Time, units resource.Units) ([]resource.Forecast, error)

	StopWater(ctx context.Context) error
	StandbyOn(ctx context.Context) error
	StandbyOff(ctx context.Context) error
	RainDelay(ctx context.Context, d time.Duration) error
	RainDelayCancel(ctx context.Context) error
	PauseZoneRun(ctx context.Context, d time.Duration) error
	ResumeZoneRun(ctx context.Context) error
}

var _ Controller = (*resource.Device)(nil)

// MQTTClient is the broker surface the bridge uses. *mqtt.Client satisfies it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

var _ MQTTClient = (*mqtt.Client)(nil)

// MetricsWriter records poll results. *influxdb.Client satisfies it.
type MetricsWriter interface {
	WriteConditions(s influxdb.ConditionsSample)
	WriteForecast(samples []influxdb.ForecastSample)
	WriteWatering(s influxdb.WateringSample)
}

var _ MetricsWriter = (*influxdb.Client)(nil)

// Logger is the logging interface used by the bridge.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Bridge.
type Options struct {
	// Device is the controller to poll and command. Required.
	Device Controller

	// MQTT is the broker client. Required.
	MQTT MQTTClient

	// Metrics is optional; nil disables metric writes.
	Metrics MetricsWriter

	Topics mqtt.Topics

	// Schedule is a cron spec (robfig/cron standard syntax or @every).
	Schedule string

	// RainThreshold is the forecast probability reported as next rain.
	// Non-positive uses resource.DefaultRainThreshold.
	RainThreshold float64

	Units resource.Units

	Logger Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Bridge publishes a device's state to MQTT on a schedule, records metrics
// and executes commands received over MQTT.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	device    Controller
	mqtt      MQTTClient
	metrics   MetricsWriter
	topics    mqtt.Topics
	threshold float64
	units     resource.Units
	now       func() time.Time

	cron *cron.Cron

	// pollSeq numbers polls in the order they start. lastSeq is the newest
	// poll whose result reached publishState; older results are dropped.
	pollSeq atomic.Uint64

	// lastState is the last published snapshot with its timestamp zeroed.
	lastState   []byte
	lastSeq     uint64
	lastStateMu sync.Mutex

	// wg tracks command handlers and background polls. stopped is set
	// under stopMu together with the cancel so no Add follows Wait.
	wg        sync.WaitGroup
	stopMu    sync.Mutex
	stopped   bool
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a bridge. Call Start to begin polling and accepting commands.
//
// Returns:
//   - *Bridge: Configured bridge
//   - error: ErrMissingDependency or ErrInvalidSchedule
func New(opts Options) (*Bridge, error) {
	if opts.Device == nil {
		return nil, fmt.Errorf("%w: device", ErrMissingDependency)
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("%w: MQTT client", ErrMissingDependency)
	}

	schedule := opts.Schedule
	if schedule == "" {
		schedule = DefaultPollSchedule
	}
	threshold := opts.RainThreshold
	if threshold <= 0 {
		threshold = resource.DefaultRainThreshold
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		device:    opts.Device,
		mqtt:      opts.MQTT,
		metrics:   opts.Metrics,
		topics:    opts.Topics,
		threshold: threshold,
		units:     opts.Units,
		now:       now,
		ctx:       ctx,
		ctxCancel: ctxCancel,
		logger:    opts.Logger,
	}

	b.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{b})))
	if _, err := b.cron.AddFunc(schedule, b.scheduledPoll); err != nil {
		ctxCancel()
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, schedule, err)
	}

	return b, nil
}

// Start subscribes to the device command topic, publishes an initial state
// and starts the poll schedule. A failed initial poll is logged, not returned.
func (b *Bridge) Start(ctx context.Context) error {
	topic := b.topics.DeviceCommand(b.device.ID())
	if err := b.mqtt.Subscribe(topic, qosAtLeastOnce, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)

	if err := b.Poll(ctx); err != nil {
		b.logError("initial poll failed", err)
	}

	b.cron.Start()
	b.logInfo("bridge started", "device_id", b.device.ID())
	return nil
}

// Stop halts polling, aborts in-flight commands and waits for them and any
// background polls to end. Commands arriving afterwards are dropped.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.stopMu.Lock()
		b.stopped = true
		b.ctxCancel()
		b.stopMu.Unlock()

		<-b.cron.Stop().Done()

		if err := b.mqtt.Unsubscribe(b.topics.DeviceCommand(b.device.ID())); err != nil {
			b.logDebug("unsubscribe on stop failed", "error", err)
		}

		b.wg.Wait()
		b.logInfo("bridge stopped")
	})
}

// track registers one unit of background work, reporting false once Stop
// has begun.
func (b *Bridge) track() bool {
	b.stopMu.Lock()
	defer b.stopMu.Unlock()
	if b.stopped {
		return false
	}
	b.wg.Add(1)
	return true
}

func (b *Bridge) scheduledPoll() {
	if err := b.Poll(b.ctx); err != nil && b.ctx.Err() == nil {
		b.logError("scheduled poll failed", err)
	}
}

// Poll reads the device once, publishes its state when it changed and
// writes metrics. When polls overlap, a poll that started before the most
// recently published one is discarded.
func (b *Bridge) Poll(ctx context.Context) error {
	seq := b.pollSeq.Add(1)

	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	var (
		zones []*resource.Zone
		sched resource.CurrentSchedule
		cond  resource.Conditions
		days  []resource.Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		zones, err = b.device.Zones(gctx)
		return err
	})
	g.Go(func() (err error) {
		sched, err = b.device.CurrentSchedule(gctx)
		return err
	})
	g.Go(func() (err error) {
		cond, err = b.device.CurrentConditions(gctx, b.units)
		return err
	})
	g.Go(func() (err error) {
		days, err = b.device.Forecast(gctx, time.Time{}, time.Time{}, b.units)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("polling device %s: %w", b.device.ID(), err)
	}

	now := b.now()
	state := buildState(b.device.ID(), now, zones, sched, cond, days, b.threshold)

	current, err := b.publishState(seq, state)
	if err != nil || !current {
		return err
	}
	b.writeMetrics(state, cond, days, now)
	return nil
}

// publishState publishes state retained, skipping snapshots equal to the
// previous one apart from the timestamp. It reports false without publishing
// when a newer poll than seq has already been through.
func (b *Bridge) publishState(seq uint64, state StateMessage) (bool, error) {
	fingerprint := state
	fingerprint.Timestamp = time.Time{}
	key, err := json.Marshal(fingerprint)
	if err != nil {
		return false, fmt.Errorf("encoding state: %w", err)
	}

	b.lastStateMu.Lock()
	defer b.lastStateMu.Unlock()

	if seq < b.lastSeq {
		b.logDebug("dropping stale poll", "device_id", state.DeviceID, "poll", seq, "latest", b.lastSeq)
		return false, nil
	}
	b.lastSeq = seq

	if bytes.Equal(key, b.lastState) {
		b.logDebug("state unchanged", "device_id", state.DeviceID)
		return true, nil
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("encoding state: %w", err)
	}
	topic := b.topics.DeviceState(state.DeviceID)
	if err := b.mqtt.Publish(topic, payload, qosAtLeastOnce, true); err != nil {
		return false, fmt.Errorf("publishing state: %w", err)
	}

	b.lastState = key
	b.logDebug("state published", "topic", topic, "watering", state.Watering, "raining", state.Raining)
	return true, nil
}

func (b *Bridge) writeMetrics(state StateMessage, cond resource.Conditions, days []resource.Forecast, now time.Time) {
	if b.metrics == nil {
		return
	}

	b.metrics.WriteConditions(influxdb.ConditionsSample{
		DeviceID:          state.DeviceID,
		Time:              now,
		Temperature:       cond.Temperature,
		Humidity:          cond.Humidity,
		WindSpeed:         cond.WindSpeed,
		PrecipIntensity:   cond.PrecipIntensity,
		PrecipProbability: cond.PrecipProbability,
	})

	samples := make([]influxdb.ForecastSample, 0, len(days))
	for _, d := range days {
		samples = append(samples, influxdb.ForecastSample{
			DeviceID:          state.DeviceID,
			Day:               d.Time,
			TemperatureMin:    d.TemperatureMin,
			TemperatureMax:    d.TemperatureMax,
			PrecipIntensity:   d.PrecipIntensity,
			PrecipProbability: d.PrecipProbability,
		})
	}
	b.metrics.WriteForecast(samples)

	watering := influxdb.WateringSample{
		DeviceID: state.DeviceID,
		Time:     now,
		Watering: state.Watering,
		Raining:  state.Raining,
	}
	if state.ActiveZone != nil {
		watering.ZoneID = state.ActiveZone.ID
		watering.ZoneNumber = state.ActiveZone.Number
	}
	b.metrics.WriteWatering(watering)
}

// handleCommand executes a command message and acknowledges it. Malformed
// payloads are returned as errors for the MQTT client to log.
func (b *Bridge) handleCommand(_ string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}

	if !b.track() {
		b.logWarn("bridge stopping, command dropped", "command_id", cmd.ID, "command", cmd.Command)
		return nil
	}
	defer b.wg.Done()

	b.logInfo("received command", "command_id", cmd.ID, "command", cmd.Command, "source", cmd.Source)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	err := b.execute(ctx, cmd)
	if err != nil {
		code := ErrCodeDeviceError
		switch {
		case errors.Is(err, ErrUnknownCommand):
			code = ErrCodeInvalidCommand
		case errors.Is(err, resource.ErrInvalidDuration), errors.Is(err, ErrUnknownZone):
			code = ErrCodeInvalidParameters
		}
		b.logError("command failed", err)
		b.publishAck(NewAckError(cmd, b.device.ID(), code, err.Error(), b.now()))
		return nil
	}

	b.publishAck(NewAckMessage(cmd, b.device.ID(), b.now()))
	b.refreshAfterCommand()
	return nil
}

func (b *Bridge) execute(ctx context.Context, cmd CommandMessage) error {
	p := cmd.Parameters
	switch cmd.Command {
	case CommandStopWater:
		return b.device.StopWater(ctx)
	case CommandStandbyOn:
		return b.device.StandbyOn(ctx)
	case CommandStandbyOff:
		return b.device.StandbyOff(ctx)
	case CommandRainDelay:
		d, err := p.durationOr(resource.DefaultRainDelay)
		if err != nil {
			return err
		}
		return b.device.RainDelay(ctx, d)
	case CommandRainDelayCancel:
		return b.device.RainDelayCancel(ctx)
	case CommandPauseZoneRun:
		d, err := p.durationOr(resource.DefaultPause)
		if err != nil {
			return err
		}
		return b.device.PauseZoneRun(ctx, d)
	case CommandResumeZoneRun:
		return b.device.ResumeZoneRun(ctx)
	case CommandStartZone:
		return b.startZone(ctx, p)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

func (b *Bridge) startZone(ctx context.Context, p CommandParameters) error {
	zones, err := b.device.Zones(ctx)
	if err != nil {
		return err
	}

	for _, z := range zones {
		if (p.ZoneID != "" && z.ID() == p.ZoneID) || (p.ZoneID == "" && z.Number == p.ZoneNumber) {
			d, err := p.durationOr(z.Runtime)
			if err != nil {
				return err
			}
			return z.Start(ctx, d)
		}
	}
	if p.ZoneID != "" {
		return fmt.Errorf("%w: id %q", ErrUnknownZone, p.ZoneID)
	}
	return fmt.Errorf("%w: number %d", ErrUnknownZone, p.ZoneNumber)
}

// refreshAfterCommand polls in the background so the retained state follows
// the command without waiting for the schedule.
func (b *Bridge) refreshAfterCommand() {
	if !b.track() {
		return
	}
	go func() {
		defer b.wg.Done()
		if err := b.Poll(b.ctx); err != nil && b.ctx.Err() == nil {
			b.logWarn("post-command poll failed", "error", err)
		}
	}()
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.DeviceAck(ack.DeviceID), payload, qosAtLeastOnce, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// cronLogger adapts the bridge logger to cron.Logger.
type cronLogger struct {
	b *Bridge
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.b.logDebug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if logger := l.b.getLogger(); logger != nil {
		logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
	}
}
