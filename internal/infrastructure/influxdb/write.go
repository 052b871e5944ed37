package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementConditions = "irrigation_conditions"
	MeasurementForecast   = "irrigation_forecast"
	MeasurementWatering   = "irrigation_watering"
)

// ConditionsSample is one reading of current weather at a device.
type ConditionsSample struct {
	DeviceID          string
	Time              time.Time
	Temperature       float64
	Humidity          float64
	WindSpeed         float64
	PrecipIntensity   float64
	PrecipProbability float64
}

// ForecastSample is the forecast for one day, stamped with the day it covers.
type ForecastSample struct {
	DeviceID          string
	Day               time.Time
	TemperatureMin    float64
	TemperatureMax    float64
	PrecipIntensity   float64
	PrecipProbability float64
}

// WateringSample records whether a device was watering when polled.
type WateringSample struct {
	DeviceID   string
	Time       time.Time
	Watering   bool
	Raining    bool
	ZoneID     string
	ZoneNumber int
}

// WriteConditions records current weather conditions.
//
// The write is non-blocking; errors arrive through SetOnError.
func (c *Client) WriteConditions(s ConditionsSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(conditionsPoint(s))
}

// WriteForecast records one forecast day per sample.
func (c *Client) WriteForecast(samples []ForecastSample) {
	if !c.IsConnected() {
		return
	}
	for _, s := range samples {
		c.writeAPI.WritePoint(forecastPoint(s))
	}
}

// WriteWatering records the watering state of a device.
func (c *Client) WriteWatering(s WateringSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(wateringPoint(s))
}

func conditionsPoint(s ConditionsSample) *write.Point {
	return write.NewPoint(
		MeasurementConditions,
		map[string]string{"device_id": s.DeviceID},
		map[string]any{
			"temperature":        s.Temperature,
			"humidity":           s.Humidity,
			"wind_speed":         s.WindSpeed,
			"precip_intensity":   s.PrecipIntensity,
			"precip_probability": s.PrecipProbability,
		},
		stamp(s.Time),
	)
}

func forecastPoint(s ForecastSample) *write.Point {
	return write.NewPoint(
		MeasurementForecast,
		map[string]string{"device_id": s.DeviceID},
		map[string]any{
			"temperature_min":    s.TemperatureMin,
			"temperature_max":    s.TemperatureMax,
			"precip_intensity":   s.PrecipIntensity,
			"precip_probability": s.PrecipProbability,
		},
		stamp(s.Day),
	)
}

// wateringPoint tags the zone only while one is running, keeping series
// cardinality bounded by the number of zones.
func wateringPoint(s WateringSample) *write.Point {
	tags := map[string]string{"device_id": s.DeviceID}
	fields := map[string]any{
		"watering": s.Watering,
		"raining":  s.Raining,
	}
	if s.Watering && s.ZoneID != "" {
		tags["zone_id"] = s.ZoneID
		fields["zone_number"] = s.ZoneNumber
	}
	return write.NewPoint(MeasurementWatering, tags, fields, stamp(s.Time))
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
