package resource

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

// Default command durations.
const (
	DefaultRainDelay = query.OneDay
	DefaultPause     = query.OneHour
	MaxRainDelay     = query.OneWeek
	MaxPause         = query.OneHour
)

// Nested keys of a device payload that are hydrated into children.
const (
	zonesKey             = "zones"
	scheduleRulesKey     = "scheduleRules"
	flexScheduleRulesKey = "flexScheduleRules"
)

// DeviceState is a hydrated device snapshot.
type DeviceState struct {
	ID           string
	Name         string
	Status       string
	SerialNumber string
	Model        string
	On           bool

	// Zones are in the order the service returned them.
	Zones             []*Zone
	ScheduleRules     []ScheduleRule
	FlexScheduleRules []FlexScheduleRule

	// Fields holds the scalar state; nested keys are removed.
	Fields Fields
}

func hydrateDevice(store datastore.Store, f Fields) (DeviceState, error) {
	zones, err := HydrateList(f, zonesKey, func(zf Fields) (*Zone, error) {
		return newZone(store, zf)
	})
	if err != nil {
		return DeviceState{}, err
	}
	rules, err := HydrateList(f, scheduleRulesKey, newScheduleRule)
	if err != nil {
		return DeviceState{}, err
	}
	flex, err := HydrateList(f, flexScheduleRulesKey, newFlexScheduleRule)
	if err != nil {
		return DeviceState{}, err
	}

	return DeviceState{
		ID:                f.String("id"),
		Name:              f.String("name"),
		Status:            f.String("status"),
		SerialNumber:      f.String("serialNumber"),
		Model:             f.String("model"),
		On:                f.Bool("on"),
		Zones:             zones,
		ScheduleRules:     rules,
		FlexScheduleRules: flex,
		Fields:            f.Without(zonesKey, scheduleRulesKey, flexScheduleRulesKey),
	}, nil
}

// Device is an irrigation controller.
//
// Its own state (zones and rules) is a refreshable snapshot; schedule,
// weather and history reads go through fetchers and are never cached.
// Commands validate their arguments before any request is made.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Device struct {
	state *Refreshable[DeviceState]

	zones      ZoneFetcher
	schedule   CurrentScheduleFetcher
	conditions CurrentConditionsFetcher
	forecasts  ForecastFetcher
	events     EventFetcher

	logger Logger
}

// NewDevice creates a Device for id. No request is made until a read.
//
// Parameters:
//   - store: Data store used for every request
//   - id: Device id
//   - opts: Refresh policy, clock and logger
//
// Returns:
//   - *Device: Device handle
func NewDevice(store datastore.Store, id string, opts ...Option) *Device {
	o := buildOptions(opts)
	return &Device{
		state:      NewRefreshable(NewResource(id, DeviceTemplate, store), hydrateDevice, opts...),
		zones:      NewZoneFetcher(store),
		schedule:   NewCurrentScheduleFetcher(store),
		conditions: NewCurrentConditionsFetcher(store),
		forecasts:  NewForecastFetcher(store, o.now),
		events:     NewEventFetcher(store),
		logger:     o.logger,
	}
}

// ID returns the device id.
func (d *Device) ID() string {
	return d.state.ID()
}

// Resource returns the device's identity.
func (d *Device) Resource() Resource {
	return d.state.Resource
}

// State returns the device state, refreshing according to the policy.
func (d *Device) State(ctx context.Context) (DeviceState, error) {
	return d.state.Get(ctx)
}

// Refresh forces a fetch of the device state.
func (d *Device) Refresh(ctx context.Context) (DeviceState, error) {
	return d.state.Refresh(ctx)
}

// Cached returns the last fetched state without I/O.
func (d *Device) Cached() (Snapshot[DeviceState], bool) {
	return d.state.Cached()
}

// Zones returns the device's zones sorted by zone number. Zones sharing a
// number keep their service order. The zones are copies; changing them does
// not touch the cached snapshot.
func (d *Device) Zones(ctx context.Context) ([]*Zone, error) {
	state, err := d.state.Get(ctx)
	if err != nil {
		return nil, err
	}

	zones := make([]*Zone, len(state.Zones))
	for i, z := range state.Zones {
		zones[i] = z.clone()
	}
	slices.SortStableFunc(zones, func(a, b *Zone) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return zones, nil
}

// ScheduleRules returns the device's fixed schedules.
func (d *Device) ScheduleRules(ctx context.Context) ([]ScheduleRule, error) {
	state, err := d.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(state.ScheduleRules), nil
}

// FlexScheduleRules returns the device's weather-driven schedules.
func (d *Device) FlexScheduleRules(ctx context.Context) ([]FlexScheduleRule, error) {
	state, err := d.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(state.FlexScheduleRules), nil
}

// CurrentSchedule returns what the device is running now.
func (d *Device) CurrentSchedule(ctx context.Context) (CurrentSchedule, error) {
	return d.schedule.Get(ctx, d.ID())
}

// ActiveZone returns the zone currently watering. The boolean is false when
// the current schedule names no zone.
func (d *Device) ActiveZone(ctx context.Context) (*Zone, bool, error) {
	sched, err := d.CurrentSchedule(ctx)
	if err != nil {
		return nil, false, err
	}
	if !sched.Active() {
		return nil, false, nil
	}

	zone, err := d.zones.Get(ctx, sched.ZoneID)
	if err != nil {
		return nil, false, err
	}
	return zone, true, nil
}

// IsWatering reports whether the current schedule names a zone.
func (d *Device) IsWatering(ctx context.Context) (bool, error) {
	sched, err := d.CurrentSchedule(ctx)
	if err != nil {
		return false, err
	}
	return sched.Active(), nil
}

// CurrentConditions returns the weather at the device.
func (d *Device) CurrentConditions(ctx context.Context, units Units) (Conditions, error) {
	return d.conditions.Get(ctx, d.ID(), units)
}

// IsRaining reports whether the current precipitation probability is at
// least RainingProbability.
func (d *Device) IsRaining(ctx context.Context) (bool, error) {
	cond, err := d.CurrentConditions(ctx, "")
	if err != nil {
		return false, err
	}
	return cond.PrecipProbability >= RainingProbability, nil
}

// Forecast returns the daily forecast between start and end. Zero bounds use
// the service default window.
func (d *Device) Forecast(ctx context.Context, start, end time.Time, units Units) ([]Forecast, error) {
	return d.forecasts.Get(ctx, d.ID(), start, end, units)
}

// ForecastToday returns the forecast for the current calendar day.
func (d *Device) ForecastToday(ctx context.Context, units Units) ([]Forecast, error) {
	return d.forecasts.GetToday(ctx, d.ID(), units)
}

// ForecastTomorrow returns the forecast for the next calendar day.
func (d *Device) ForecastTomorrow(ctx context.Context, units Units) ([]Forecast, error) {
	return d.forecasts.GetTomorrow(ctx, d.ID(), units)
}

// ForecastNextRain returns the first forecast day, in service order, whose
// precipitation probability is at least threshold. The boolean is false when
// no day qualifies.
func (d *Device) ForecastNextRain(ctx context.Context, threshold float64, units Units) (Forecast, bool, error) {
	days, err := d.Forecast(ctx, time.Time{}, time.Time{}, units)
	if err != nil {
		return Forecast{}, false, err
	}
	day, ok := FirstRainDay(days, threshold)
	return day, ok, nil
}

// FirstRainDay returns the first of days whose precipitation probability is
// at least threshold.
func FirstRainDay(days []Forecast, threshold float64) (Forecast, bool) {
	i := slices.IndexFunc(days, func(f Forecast) bool {
		return f.PrecipProbability >= threshold
	})
	if i < 0 {
		return Forecast{}, false
	}
	return days[i], true
}

// Events returns the device history between start and end, keeping those
// matching filter. A nil filter keeps everything.
func (d *Device) Events(ctx context.Context, start, end time.Time, filter query.Predicate[Event]) ([]Event, error) {
	return d.events.Get(ctx, d.ID(), start, end, filter)
}

// StopWater stops all watering.
func (d *Device) StopWater(ctx context.Context) error {
	return d.command(ctx, StopWaterTemplate, nil)
}

// StandbyOn puts the device in standby, suspending all schedules.
func (d *Device) StandbyOn(ctx context.Context) error {
	return d.command(ctx, StandbyOnTemplate, nil)
}

// StandbyOff takes the device out of standby.
func (d *Device) StandbyOff(ctx context.Context) error {
	return d.command(ctx, StandbyOffTemplate, nil)
}

// RainDelay suspends schedules for dur, between 0 and MaxRainDelay.
// DefaultRainDelay is the customary value.
func (d *Device) RainDelay(ctx context.Context, dur time.Duration) error {
	if err := checkDuration("rain delay", dur, MaxRainDelay); err != nil {
		return err
	}
	return d.command(ctx, RainDelayTemplate, datastore.Args{"duration": seconds(dur)})
}

// RainDelayCancel clears any rain delay.
func (d *Device) RainDelayCancel(ctx context.Context) error {
	return d.RainDelay(ctx, 0)
}

// PauseZoneRun pauses the running zone for dur, between 0 and MaxPause.
// DefaultPause is the customary value.
func (d *Device) PauseZoneRun(ctx context.Context, dur time.Duration) error {
	if err := checkDuration("zone pause", dur, MaxPause); err != nil {
		return err
	}
	return d.command(ctx, PauseZoneRunTemplate, datastore.Args{"duration": seconds(dur)})
}

// ResumeZoneRun resumes a paused zone run.
func (d *Device) ResumeZoneRun(ctx context.Context) error {
	return d.command(ctx, ResumeZoneRunTemplate, nil)
}

func (d *Device) command(ctx context.Context, template string, extra datastore.Args) error {
	args := datastore.Args{"id": d.ID()}
	for k, v := range extra {
		args[k] = v
	}

	if err := d.state.Store().Write(ctx, template, args); err != nil {
		d.logger.Error("device command failed", "device_id", d.ID(), "command", template, "error", err)
		return err
	}

	d.logger.Info("device command sent", "device_id", d.ID(), "command", template)
	return nil
}
