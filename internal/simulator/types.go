package simulator

// Payload shapes served by the simulator. Times are epoch milliseconds and
// durations are seconds, as on the real service.

// Device is a controller with its zones and schedule rules.
type Device struct {
	ID                      string             `json:"id"`
	Name                    string             `json:"name"`
	Status                  string             `json:"status"`
	SerialNumber            string             `json:"serialNumber"`
	Model                   string             `json:"model"`
	On                      bool               `json:"on"`
	RainDelayStartDate      *int64             `json:"rainDelayStartDate,omitempty"`
	RainDelayExpirationDate *int64             `json:"rainDelayExpirationDate,omitempty"`
	CreatedDate             int64              `json:"createdDate"`
	Zones                   []Zone             `json:"zones"`
	ScheduleRules           []ScheduleRule     `json:"scheduleRules"`
	FlexScheduleRules       []FlexScheduleRule `json:"flexScheduleRules"`
}

// Zone is one watering zone.
type Zone struct {
	ID              string  `json:"id"`
	DeviceID        string  `json:"deviceId"`
	ZoneNumber      int     `json:"zoneNumber"`
	Name            string  `json:"name"`
	Enabled         bool    `json:"enabled"`
	Runtime         int64   `json:"runtime"`
	LastWateredDate *int64  `json:"lastWateredDate,omitempty"`
	CustomNozzle    *Nozzle `json:"customNozzle,omitempty"`
}

// Nozzle is a zone's sprinkler head.
type Nozzle struct {
	Name          string  `json:"name"`
	InchesPerHour float64 `json:"inchesPerHour"`
}

// ScheduleRule is a fixed watering schedule.
type ScheduleRule struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Enabled       bool   `json:"enabled"`
	StartDate     *int64 `json:"startDate,omitempty"`
	TotalDuration int64  `json:"totalDuration"`
	ExternalName  string `json:"externalName"`
}

// FlexScheduleRule is a weather-adjusted schedule.
type FlexScheduleRule struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// CurrentSchedule is the zone a device is running. ZoneID is empty when idle.
type CurrentSchedule struct {
	DeviceID   string `json:"deviceId"`
	ZoneID     string `json:"zoneId,omitempty"`
	ZoneNumber int    `json:"zoneNumber,omitempty"`
	Status     string `json:"status"`
	Type       string `json:"type,omitempty"`
	StartDate  int64  `json:"startDate,omitempty"`
	Duration   int64  `json:"duration,omitempty"`
}

// Current schedule statuses.
const (
	StatusIdle    = "IDLE"
	StatusRunning = "PROCESSING"
	StatusPaused  = "PAUSED"
)

// Conditions is the current weather at a device.
type Conditions struct {
	Time               int64   `json:"time"`
	WeatherSummary     string  `json:"weatherSummary"`
	CurrentTemperature float64 `json:"currentTemperature"`
	Humidity           float64 `json:"humidity"`
	WindSpeed          float64 `json:"windSpeed"`
	PrecipIntensity    float64 `json:"precipIntensity"`
	PrecipProbability  float64 `json:"precipProbability"`
}

// ForecastDay is the forecast for one calendar day.
type ForecastDay struct {
	Time              int64   `json:"time"`
	WeatherSummary    string  `json:"weatherSummary"`
	TemperatureMin    float64 `json:"temperatureMin"`
	TemperatureMax    float64 `json:"temperatureMax"`
	PrecipIntensity   float64 `json:"precipIntensity"`
	PrecipProbability float64 `json:"precipProbability"`
}

// Event is an entry in a device's history.
type Event struct {
	ID        string `json:"id"`
	DeviceID  string `json:"deviceId"`
	Category  string `json:"category"`
	Type      string `json:"type"`
	SubType   string `json:"subType"`
	Summary   string `json:"summary"`
	EventDate int64  `json:"eventDate"`
}

// Event categories and types recorded by commands.
const (
	CategoryDevice   = "DEVICE"
	CategorySchedule = "SCHEDULE"

	EventZoneStatus   = "ZONE_STATUS"
	EventDeviceStatus = "DEVICE_STATUS"
	EventRainDelay    = "RAIN_DELAY"
)
