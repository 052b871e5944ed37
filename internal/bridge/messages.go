package bridge

import (
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/resource"
)

// Command names accepted on {prefix}/device/{id}/command.
const (
	CommandStopWater       = "stop_water"
	CommandStandbyOn       = "standby_on"
	CommandStandbyOff      = "standby_off"
	CommandRainDelay       = "rain_delay"
	CommandRainDelayCancel = "rain_delay_cancel"
	CommandPauseZoneRun    = "pause_zone_run"
	CommandResumeZoneRun   = "resume_zone_run"
	CommandStartZone       = "start_zone"
)

// CommandMessage is received on a device command topic.
type CommandMessage struct {
	// ID correlates the command with its acknowledgement.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp,omitzero"`

	// Command is one of the Command* names.
	Command string `json:"command"`

	Parameters CommandParameters `json:"parameters,omitzero"`

	// Source indicates where the command came from, e.g. "dashboard".
	Source string `json:"source,omitempty"`
}

// CommandParameters carries command arguments.
type CommandParameters struct {
	// Duration in seconds. Absent means the command's default: one day for
	// rain_delay, one hour for pause_zone_run, the zone runtime for start_zone.
	Duration *int64 `json:"duration,omitempty"`

	// ZoneID or ZoneNumber select the zone for start_zone; ZoneID wins.
	ZoneID     string `json:"zone_id,omitempty"`
	ZoneNumber int    `json:"zone_number,omitempty"`
}

// maxDurationSeconds is the largest second count a time.Duration can hold.
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// durationOr returns the requested duration or def when none was given.
// Negative counts and counts beyond time.Duration's range wrap
// resource.ErrInvalidDuration.
func (p CommandParameters) durationOr(def time.Duration) (time.Duration, error) {
	if p.Duration == nil {
		return def, nil
	}
	secs := *p.Duration
	if secs < 0 || secs > maxDurationSeconds {
		return 0, fmt.Errorf("%w: %d seconds", resource.ErrInvalidDuration, secs)
	}
	return time.Duration(secs) * time.Second, nil
}

// AckStatus is the outcome of a command.
type AckStatus string

// Acknowledgement statuses.
const (
	AckAccepted AckStatus = "accepted"
	AckFailed   AckStatus = "failed"
)

// Error codes reported in failed acknowledgements.
const (
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeDeviceError       = "DEVICE_ERROR"
)

// AckMessage is published on {prefix}/device/{id}/ack for every command.
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Command   string    `json:"command"`
	Status    AckStatus `json:"status"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError describes why a command failed.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAckMessage creates an accepted acknowledgement for cmd.
func NewAckMessage(cmd CommandMessage, deviceID string, now time.Time) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: now.UTC(),
		DeviceID:  deviceID,
		Command:   cmd.Command,
		Status:    AckAccepted,
	}
}

// NewAckError creates a failed acknowledgement for cmd.
func NewAckError(cmd CommandMessage, deviceID, code, message string, now time.Time) AckMessage {
	ack := NewAckMessage(cmd, deviceID, now)
	ack.Status = AckFailed
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}

// StateMessage is the retained snapshot on {prefix}/device/{id}/state.
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`

	Watering   bool       `json:"watering"`
	ActiveZone *ZoneState `json:"active_zone,omitempty"`

	Raining           bool     `json:"raining"`
	Temperature       float64  `json:"temperature"`
	PrecipProbability float64  `json:"precip_probability"`
	NextRain          *RainDay `json:"next_rain,omitempty"`

	Zones []ZoneState `json:"zones"`
}

// ZoneState summarises a zone.
type ZoneState struct {
	ID             string    `json:"id"`
	Number         int       `json:"number"`
	Name           string    `json:"name,omitempty"`
	Enabled        bool      `json:"enabled"`
	RuntimeSeconds int64     `json:"runtime_seconds"`
	LastWatered    time.Time `json:"last_watered,omitzero"`
}

// RainDay is the first forecast day likely to see rain.
type RainDay struct {
	Date              time.Time `json:"date"`
	PrecipProbability float64   `json:"precip_probability"`
	Summary           string    `json:"summary,omitempty"`
}

func newZoneState(z *resource.Zone) ZoneState {
	return ZoneState{
		ID:             z.ID(),
		Number:         z.Number,
		Name:           z.Name,
		Enabled:        z.Enabled,
		RuntimeSeconds: int64(z.Runtime / time.Second),
		LastWatered:    z.LastWatered,
	}
}

// buildState assembles the state snapshot from one poll.
func buildState(deviceID string, now time.Time, zones []*resource.Zone, sched resource.CurrentSchedule,
	cond resource.Conditions, days []resource.Forecast, threshold float64) StateMessage {
	msg := StateMessage{
		DeviceID:          deviceID,
		Timestamp:         now.UTC(),
		Watering:          sched.Active(),
		Raining:           cond.PrecipProbability >= resource.RainingProbability,
		Temperature:       cond.Temperature,
		PrecipProbability: cond.PrecipProbability,
		Zones:             make([]ZoneState, 0, len(zones)),
	}

	for _, z := range zones {
		zs := newZoneState(z)
		msg.Zones = append(msg.Zones, zs)
		if sched.Active() && z.ID() == sched.ZoneID {
			msg.ActiveZone = &zs
		}
	}
	if sched.Active() && msg.ActiveZone == nil {
		msg.ActiveZone = &ZoneState{ID: sched.ZoneID, Number: sched.ZoneNumber}
	}

	if day, ok := resource.FirstRainDay(days, threshold); ok {
		msg.NextRain = &RainDay{
			Date:              day.Time,
			PrecipProbability: day.PrecipProbability,
			Summary:           day.Summary,
		}
	}

	return msg
}
