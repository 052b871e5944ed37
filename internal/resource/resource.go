package resource

import "github.com/nerrad567/gray-logic-irrigation/internal/datastore"

// Endpoint templates for reads.
const (
	DeviceTemplate            = "device/{id}"
	ZoneTemplate              = "zone/{id}"
	CurrentScheduleTemplate   = "device/{deviceId}/current_schedule"
	CurrentConditionsTemplate = "device/{deviceId}/current_conditions?units={units}"
	ForecastTemplate          = "device/{deviceId}/forecast?units={units}&startTime={startTime}&endTime={endTime}"
	EventTemplate             = "device/{deviceId}/event?startTime={startTime}&endTime={endTime}"
)

// Endpoint templates for commands. Arguments travel in the JSON body.
const (
	StopWaterTemplate     = "device/stop_water"
	StandbyOffTemplate    = "device/on"
	StandbyOnTemplate     = "device/off"
	RainDelayTemplate     = "device/rain_delay"
	PauseZoneRunTemplate  = "device/pause_zone_run"
	ResumeZoneRunTemplate = "device/resume_zone_run"
	ZoneStartTemplate     = "zone/start"
)

// Resource identifies a remote entity: an id, the endpoint template it is
// read from and the store used to reach it. It is immutable.
type Resource struct {
	id       string
	template string
	store    datastore.Store
}

// NewResource creates a Resource.
func NewResource(id, template string, store datastore.Store) Resource {
	return Resource{id: id, template: template, store: store}
}

// ID returns the resource id.
func (r Resource) ID() string { return r.id }

// Template returns the endpoint template.
func (r Resource) Template() string { return r.template }

// Store returns the store handle.
func (r Resource) Store() datastore.Store { return r.store }

// Args returns the default fetch arguments, binding {id}.
func (r Resource) Args() datastore.Args {
	return datastore.Args{"id": r.id}
}

// Same reports whether r and other identify the same remote entity.
func (r Resource) Same(other Resource) bool {
	return r.id == other.id && r.template == other.template
}
