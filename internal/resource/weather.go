package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

// Units selects the measurement system of weather values.
type Units string

// Supported units. The zero value lets the service choose.
const (
	UnitsMetric Units = "METRIC"
	UnitsUS     Units = "US"
)

// Precipitation probabilities used by Device.
const (
	// RainingProbability is the current-conditions probability at or above
	// which it is considered to be raining.
	RainingProbability = 0.99

	// DefaultRainThreshold is the forecast probability ForecastNextRain
	// looks for when no threshold is given.
	DefaultRainThreshold = 0.25
)

// Conditions are the current weather conditions at a device.
type Conditions struct {
	Time              time.Time
	Summary           string
	Temperature       float64
	Humidity          float64
	WindSpeed         float64
	PrecipIntensity   float64
	PrecipProbability float64
	Fields            Fields
}

func newConditions(f Fields) Conditions {
	return Conditions{
		Time:              f.Time("time"),
		Summary:           f.String("weatherSummary"),
		Temperature:       f.Float("currentTemperature"),
		Humidity:          f.Float("humidity"),
		WindSpeed:         f.Float("windSpeed"),
		PrecipIntensity:   f.Float("precipIntensity"),
		PrecipProbability: f.Float("precipProbability"),
		Fields:            f,
	}
}

// Forecast is the weather forecast for one day.
type Forecast struct {
	Time              time.Time
	Summary           string
	TemperatureMin    float64
	TemperatureMax    float64
	PrecipIntensity   float64
	PrecipProbability float64
	Fields            Fields
}

// Lookup resolves a dotted path in the raw forecast fields.
func (f Forecast) Lookup(path string) (any, bool) {
	return f.Fields.Lookup(path)
}

func newForecast(f Fields) (Forecast, error) {
	return Forecast{
		Time:              f.Time("time"),
		Summary:           f.String("weatherSummary"),
		TemperatureMin:    f.Float("temperatureMin"),
		TemperatureMax:    f.Float("temperatureMax"),
		PrecipIntensity:   f.Float("precipIntensity"),
		PrecipProbability: f.Float("precipProbability"),
		Fields:            f,
	}, nil
}

// ForecastFetcher reads daily forecasts. It does not cache.
type ForecastFetcher struct {
	store datastore.Store
	now   func() time.Time
}

// NewForecastFetcher creates a ForecastFetcher. now decides which calendar
// day is "today"; nil uses time.Now.
func NewForecastFetcher(store datastore.Store, now func() time.Time) ForecastFetcher {
	if now == nil {
		now = time.Now
	}
	return ForecastFetcher{store: store, now: now}
}

// Get fetches the forecast days of deviceID between start and end. Zero
// bounds are left to the service.
func (ff ForecastFetcher) Get(ctx context.Context, deviceID string, start, end time.Time, units Units) ([]Forecast, error) {
	startMs, endMs := query.Window{Start: start, End: end}.Millis()

	raw, err := ff.store.Fetch(ctx, ForecastTemplate, datastore.Args{
		"deviceId":  deviceID,
		"units":     string(units),
		"startTime": startMs,
		"endTime":   endMs,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeFieldsList(raw, "forecast")
	if err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}
	return buildAll(items, newForecast)
}

// GetToday fetches the forecast for the current calendar day.
func (ff ForecastFetcher) GetToday(ctx context.Context, deviceID string, units Units) ([]Forecast, error) {
	w := query.Today(ff.now())
	return ff.Get(ctx, deviceID, w.Start, w.End, units)
}

// GetTomorrow fetches the forecast for the next calendar day.
func (ff ForecastFetcher) GetTomorrow(ctx context.Context, deviceID string, units Units) ([]Forecast, error) {
	w := query.Tomorrow(ff.now())
	return ff.Get(ctx, deviceID, w.Start, w.End, units)
}

// CurrentConditionsFetcher reads current weather conditions. It does not cache.
type CurrentConditionsFetcher struct {
	store datastore.Store
}

// NewCurrentConditionsFetcher creates a CurrentConditionsFetcher.
func NewCurrentConditionsFetcher(store datastore.Store) CurrentConditionsFetcher {
	return CurrentConditionsFetcher{store: store}
}

// Get fetches the current conditions at deviceID.
func (cf CurrentConditionsFetcher) Get(ctx context.Context, deviceID string, units Units) (Conditions, error) {
	raw, err := cf.store.Fetch(ctx, CurrentConditionsTemplate, datastore.Args{
		"deviceId": deviceID,
		"units":    string(units),
	})
	if err != nil {
		return Conditions{}, err
	}

	f, err := DecodeFields(raw)
	if err != nil {
		return Conditions{}, fmt.Errorf("decoding current conditions: %w", err)
	}
	return newConditions(f), nil
}

// buildAll applies build to every item, preserving order.
func buildAll[T any](items []Fields, build Builder[T]) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := build(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
