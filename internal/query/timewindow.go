package query

import "time"

// Well-known durations in seconds, as used on the wire by duration-bearing commands.
const (
	OneHourSeconds = 3600
	OneDaySeconds  = 86400
	OneWeekSeconds = 604800
)

// Duration equivalents of the wire constants.
const (
	OneHour = OneHourSeconds * time.Second
	OneDay  = OneDaySeconds * time.Second
	OneWeek = OneWeekSeconds * time.Second
)

// Unit is a calendar or clock unit accepted by AddTime.
type Unit string

// Supported units.
const (
	Millisecond Unit = "millisecond"
	Second      Unit = "second"
	Minute      Unit = "minute"
	Hour        Unit = "hour"
	Day         Unit = "day"
	Week        Unit = "week"
	Month       Unit = "month"
	Year        Unit = "year"
)

// AddTime returns start shifted by amount units.
//
// A zero start means "no base time" and yields the zero time rather than an
// error. Day, week, month and year are calendar units: they keep the wall clock
// time in start's location across DST changes. Unknown units return start
// unchanged.
func AddTime(start time.Time, amount int, unit Unit) time.Time {
	if start.IsZero() {
		return time.Time{}
	}

	switch unit {
	case Millisecond:
		return start.Add(time.Duration(amount) * time.Millisecond)
	case Second:
		return start.Add(time.Duration(amount) * time.Second)
	case Minute:
		return start.Add(time.Duration(amount) * time.Minute)
	case Hour:
		return start.Add(time.Duration(amount) * time.Hour)
	case Day:
		return start.AddDate(0, 0, amount)
	case Week:
		return start.AddDate(0, 0, 7*amount)
	case Month:
		return start.AddDate(0, amount, 0)
	case Year:
		return start.AddDate(amount, 0, 0)
	default:
		return start
	}
}

// StartOfDay returns midnight at the start of the calendar day containing now,
// in now's location.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// EndOfDay returns the last millisecond of the calendar day containing now,
// in now's location.
func EndOfDay(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// StartOfDayMillis is StartOfDay as a Unix millisecond timestamp.
func StartOfDayMillis(now time.Time) int64 {
	return StartOfDay(now).UnixMilli()
}

// EndOfDayMillis is EndOfDay as a Unix millisecond timestamp.
func EndOfDayMillis(now time.Time) int64 {
	return EndOfDay(now).UnixMilli()
}

// Window is a (start, end) pair bounding a time-series query.
// Either side may be zero, meaning the remote default applies.
type Window struct {
	Start time.Time
	End   time.Time
}

// Today returns the window covering the calendar day containing now.
func Today(now time.Time) Window {
	return Window{Start: StartOfDay(now), End: EndOfDay(now)}
}

// Tomorrow returns the window covering the calendar day after now.
func Tomorrow(now time.Time) Window {
	return Today(AddTime(StartOfDay(now), 1, Day))
}

// IsOpen reports whether neither bound is set.
func (w Window) IsOpen() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Millis returns the bounds as Unix millisecond timestamps, with nil for an
// absent bound so that template interpolation renders it empty.
func (w Window) Millis() (start, end any) {
	if !w.Start.IsZero() {
		start = w.Start.UnixMilli()
	}
	if !w.End.IsZero() {
		end = w.End.UnixMilli()
	}
	return start, end
}
