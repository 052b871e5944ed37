// Package query provides the time-window, filtering and endpoint-template helpers
// shared by every irrigation resource that queries time-series data
// (forecasts, events, schedules).
//
// All functions are pure and safe for concurrent use.
//
// # Time windows
//
// A window is a (start, end) pair. A zero time.Time means "absent" and lets the
// remote service apply its default window:
//
//	start := query.StartOfDay(now)
//	end := query.EndOfDay(now)
//	tomorrow := query.AddTime(start, 1, query.Day)
//
// # Filtering
//
// Filters are functions over slices. A nil predicate yields the identity filter,
// which returns its input untouched without iterating it:
//
//	keep := query.FilterPropertyBetween("precipProbability", 0.25, math.Inf(1))
//	wet := keep(records)
//
// # Endpoint templates
//
// Templates use {name} placeholders. The static part is escaped once for string
// literal contexts; dynamic values are percent-encoded on every call:
//
//	forecast := query.NewURLInterpolator("device/{deviceId}/forecast?units={units}")
//	path := forecast.Interpolate(map[string]any{"deviceId": id, "units": "METRIC"})
package query
