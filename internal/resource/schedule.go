package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

// CurrentSchedule is what a device is running right now. ZoneID is empty
// when nothing is watering.
type CurrentSchedule struct {
	DeviceID   string
	ZoneID     string
	ZoneNumber int
	Status     string
	Type       string
	StartDate  time.Time
	Duration   time.Duration
	Fields     Fields
}

// Active reports whether the schedule names a zone.
func (s CurrentSchedule) Active() bool {
	return s.ZoneID != ""
}

func newCurrentSchedule(f Fields) CurrentSchedule {
	return CurrentSchedule{
		DeviceID:   f.String("deviceId"),
		ZoneID:     f.String("zoneId"),
		ZoneNumber: f.Int("zoneNumber"),
		Status:     f.String("status"),
		Type:       f.String("type"),
		StartDate:  f.Time("startDate"),
		Duration:   f.Seconds("duration"),
		Fields:     f,
	}
}

// CurrentScheduleFetcher reads a device's running schedule. It does not cache.
type CurrentScheduleFetcher struct {
	store datastore.Store
}

// NewCurrentScheduleFetcher creates a CurrentScheduleFetcher.
func NewCurrentScheduleFetcher(store datastore.Store) CurrentScheduleFetcher {
	return CurrentScheduleFetcher{store: store}
}

// Get fetches the current schedule of deviceID.
func (sf CurrentScheduleFetcher) Get(ctx context.Context, deviceID string) (CurrentSchedule, error) {
	raw, err := sf.store.Fetch(ctx, CurrentScheduleTemplate, datastore.Args{"deviceId": deviceID})
	if err != nil {
		return CurrentSchedule{}, err
	}

	f, err := DecodeFields(raw)
	if err != nil {
		return CurrentSchedule{}, fmt.Errorf("decoding current schedule: %w", err)
	}
	return newCurrentSchedule(f), nil
}

// Event is an entry of a device's event history.
type Event struct {
	ID        string
	DeviceID  string
	Category  string
	Type      string
	SubType   string
	Summary   string
	EventDate time.Time
	Fields    Fields
}

// Lookup resolves a dotted path in the raw event fields, so events can be
// range-filtered with query.FilterPropertyBetween.
func (e Event) Lookup(path string) (any, bool) {
	return e.Fields.Lookup(path)
}

func newEvent(f Fields) (Event, error) {
	return Event{
		ID:        f.String("id"),
		DeviceID:  f.String("deviceId"),
		Category:  f.String("category"),
		Type:      f.String("type"),
		SubType:   f.String("subType"),
		Summary:   f.String("summary"),
		EventDate: f.Time("eventDate"),
		Fields:    f,
	}, nil
}

// EventFetcher reads device event history. It does not cache.
type EventFetcher struct {
	store datastore.Store
}

// NewEventFetcher creates an EventFetcher.
func NewEventFetcher(store datastore.Store) EventFetcher {
	return EventFetcher{store: store}
}

// Get fetches the events of deviceID between start and end and keeps those
// matching filter. A nil filter keeps everything.
func (ef EventFetcher) Get(ctx context.Context, deviceID string, start, end time.Time, filter query.Predicate[Event]) ([]Event, error) {
	startMs, endMs := query.Window{Start: start, End: end}.Millis()

	raw, err := ef.store.Fetch(ctx, EventTemplate, datastore.Args{
		"deviceId":  deviceID,
		"startTime": startMs,
		"endTime":   endMs,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeFieldsList(raw, "events")
	if err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	events, err := buildAll(items, newEvent)
	if err != nil {
		return nil, err
	}
	return query.Filter(filter)(events), nil
}
