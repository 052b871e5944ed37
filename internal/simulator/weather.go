package simulator

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

// Units selects the measurement system of weather responses. Values are
// stored metric.
type Units string

// Supported units.
const (
	UnitsMetric Units = "METRIC"
	UnitsUS     Units = "US"
)

// ParseUnits accepts the units query parameter. Empty means metric.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case "", UnitsMetric:
		return UnitsMetric, nil
	case UnitsUS:
		return UnitsUS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnits, s)
	}
}

const (
	mmPerInch  = 25.4
	kmhPerMph  = 1.609344
	roundScale = 100
)

func fahrenheit(c float64) float64 { return round(c*9/5 + 32) }

func round(v float64) float64 { return math.Round(v*roundScale) / roundScale }

func (u Units) conditions(c Conditions) Conditions {
	if u != UnitsUS {
		return c
	}
	c.CurrentTemperature = fahrenheit(c.CurrentTemperature)
	c.WindSpeed = round(c.WindSpeed / kmhPerMph)
	c.PrecipIntensity = round(c.PrecipIntensity / mmPerInch)
	return c
}

func (u Units) forecast(f ForecastDay) ForecastDay {
	if u != UnitsUS {
		return f
	}
	f.TemperatureMin = fahrenheit(f.TemperatureMin)
	f.TemperatureMax = fahrenheit(f.TemperatureMax)
	f.PrecipIntensity = round(f.PrecipIntensity / mmPerInch)
	return f
}

// ForecastDays is how many days RollWeather keeps ahead, today included.
const ForecastDays = 7

// weatherPattern cycles by day of year so a given date always gets the same
// synthetic weather.
var weatherPattern = []ForecastDay{
	{WeatherSummary: "Clear throughout the day.", TemperatureMin: 12, TemperatureMax: 24, PrecipIntensity: 0, PrecipProbability: 0.05},
	{WeatherSummary: "Partly cloudy throughout the day.", TemperatureMin: 13, TemperatureMax: 22, PrecipIntensity: 0.1, PrecipProbability: 0.15},
	{WeatherSummary: "Light rain in the afternoon.", TemperatureMin: 11, TemperatureMax: 18, PrecipIntensity: 1.2, PrecipProbability: 0.6},
	{WeatherSummary: "Rain throughout the day.", TemperatureMin: 10, TemperatureMax: 16, PrecipIntensity: 3.5, PrecipProbability: 0.85},
	{WeatherSummary: "Overcast throughout the day.", TemperatureMin: 12, TemperatureMax: 19, PrecipIntensity: 0.2, PrecipProbability: 0.3},
	{WeatherSummary: "Clear throughout the day.", TemperatureMin: 14, TemperatureMax: 26, PrecipIntensity: 0, PrecipProbability: 0.02},
	{WeatherSummary: "Breezy in the morning.", TemperatureMin: 13, TemperatureMax: 23, PrecipIntensity: 0, PrecipProbability: 0.1},
}

// SyntheticDay returns the generated forecast for the UTC day containing t.
func SyntheticDay(t time.Time) ForecastDay {
	day := query.StartOfDay(t.UTC())
	f := weatherPattern[day.YearDay()%len(weatherPattern)]
	f.Time = day.UnixMilli()
	return f
}

func syntheticConditions(now time.Time) Conditions {
	today := SyntheticDay(now)
	return Conditions{
		Time:               now.UnixMilli(),
		WeatherSummary:     today.WeatherSummary,
		CurrentTemperature: round((today.TemperatureMin + today.TemperatureMax) / 2),
		Humidity:           round(0.4 + 0.5*today.PrecipProbability),
		WindSpeed:          8,
		PrecipIntensity:    today.PrecipIntensity,
		PrecipProbability:  today.PrecipProbability,
	}
}

// RollWeather moves every device's forecast window to start today: past days
// are dropped, missing days up to ForecastDays ahead are generated and the
// current conditions are re-observed.
func (s *Store) RollWeather(ctx context.Context) error {
	now := s.now().UTC()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		ids, err := deviceIDs(ctx, tx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := rollDevice(ctx, tx, id, now); err != nil {
				return fmt.Errorf("rolling weather for %s: %w", id, err)
			}
		}
		return nil
	})
}

func rollDevice(ctx context.Context, tx *sql.Tx, deviceID string, now time.Time) error {
	const (
		dropPast  = `DELETE FROM forecast_days WHERE device_id = ? AND day < ?`
		insertDay = `
			INSERT OR IGNORE INTO forecast_days
				(device_id, day, summary, temperature_min, temperature_max, precip_intensity, precip_probability)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		upsertConditions = `
			INSERT INTO conditions
				(device_id, observed_at, summary, temperature, humidity, wind_speed, precip_intensity, precip_probability)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(device_id) DO UPDATE SET
				observed_at = excluded.observed_at,
				summary = excluded.summary,
				temperature = excluded.temperature,
				humidity = excluded.humidity,
				wind_speed = excluded.wind_speed,
				precip_intensity = excluded.precip_intensity,
				precip_probability = excluded.precip_probability`
	)

	today := query.StartOfDay(now)
	if _, err := tx.ExecContext(ctx, dropPast, deviceID, today.UnixMilli()); err != nil {
		return err
	}
	for i := 0; i < ForecastDays; i++ {
		f := SyntheticDay(query.AddTime(today, i, query.Day))
		if _, err := tx.ExecContext(ctx, insertDay, deviceID, f.Time, f.WeatherSummary,
			f.TemperatureMin, f.TemperatureMax, f.PrecipIntensity, f.PrecipProbability); err != nil {
			return err
		}
	}

	c := syntheticConditions(now)
	_, err := tx.ExecContext(ctx, upsertConditions, deviceID, c.Time, c.WeatherSummary,
		c.CurrentTemperature, c.Humidity, c.WindSpeed, c.PrecipIntensity, c.PrecipProbability)
	return err
}
