// Package resource models an irrigation controller service as a graph of
// typed resources: devices, zones, schedule rules, forecasts, events, the
// current schedule and current weather conditions.
//
// # Refreshable resources
//
// A Device's own state is held by a Refreshable. Reads pull the state from a
// datastore.Store, hydrate nested fields ("zones", "scheduleRules",
// "flexScheduleRules") into typed children and publish the result as an
// immutable Snapshot:
//
//	dev := resource.NewDevice(store, "device-id")
//	zones, err := dev.Zones(ctx) // sorted by zone number
//
// Concurrent refreshes share one request. A failed refresh keeps the previous
// snapshot. By default every logical read refreshes; a TTL can be opted into:
//
//	dev := resource.NewDevice(store, id, resource.WithPolicy(resource.TTLPolicy(time.Minute)))
//
// # Fetchers
//
// Schedule, weather and history sub-resources are read through fetchers that
// never cache and never coalesce.
//
// # Optional results
//
// Reads that may find nothing return (value, ok, err):
//
//	zone, ok, err := dev.ActiveZone(ctx)
//	day, ok, err := dev.ForecastNextRain(ctx, resource.DefaultRainThreshold, resource.UnitsMetric)
//
// # Commands
//
// Duration-bearing commands reject out-of-range values with
// ErrInvalidDuration before making a request.
package resource
