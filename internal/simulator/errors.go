package simulator

import "errors"

// Domain errors returned by Store. Handlers map them to HTTP statuses.
var (
	ErrDeviceNotFound  = errors.New("simulator: device not found")
	ErrZoneNotFound    = errors.New("simulator: zone not found")
	ErrNoActiveRun     = errors.New("simulator: no zone is running")
	ErrStandby         = errors.New("simulator: device is in standby")
	ErrZoneDisabled    = errors.New("simulator: zone is disabled")
	ErrInvalidDuration = errors.New("simulator: invalid duration")
	ErrInvalidUnits    = errors.New("simulator: invalid units")
)
