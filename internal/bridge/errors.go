package bridge

import "errors"

// Sentinel errors for bridge operations.
var (
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("bridge: missing dependency")

	// ErrInvalidSchedule is returned by New for an unparseable poll schedule.
	ErrInvalidSchedule = errors.New("bridge: invalid poll schedule")

	// ErrUnknownCommand is reported for command names the bridge does not handle.
	ErrUnknownCommand = errors.New("bridge: unknown command")

	// ErrUnknownZone is reported when start_zone names no zone of the device.
	ErrUnknownZone = errors.New("bridge: unknown zone")
)
