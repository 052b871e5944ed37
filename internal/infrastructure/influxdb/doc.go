// Package influxdb records irrigation metrics in InfluxDB v2.
//
// Three measurements are written, all tagged with device_id:
//
//	irrigation_conditions  temperature, humidity, wind_speed, precip_*
//	irrigation_forecast    temperature_min/max, precip_* (timestamped per day)
//	irrigation_watering    watering, raining, zone_number (zone_id tag while running)
//
// Writes are batched and non-blocking. Register SetOnError to observe
// failed batches.
package influxdb
