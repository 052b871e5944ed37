package simulator

const msPerSecond = 1000

// zoneRun is a row of zone_runs joined with its zone number.
type zoneRun struct {
	DeviceID    string
	ZoneID      string
	ZoneNumber  int
	Type        string
	StartedAt   int64
	Duration    int64
	PausedAt    *int64
	PausedUntil *int64
}

// at returns the run as it stands at now.
//
// A pause whose expiry has passed is folded back into a running run with its
// start shifted by the pause length. ok is false once the run has finished.
func (r zoneRun) at(now int64) (zoneRun, bool) {
	if r.PausedAt != nil {
		if r.PausedUntil == nil || now < *r.PausedUntil {
			return r, true
		}
		r.StartedAt += *r.PausedUntil - *r.PausedAt
		r.PausedAt = nil
		r.PausedUntil = nil
	}
	if now >= r.endsAt() {
		return r, false
	}
	return r, true
}

func (r zoneRun) endsAt() int64 {
	return r.StartedAt + r.Duration*msPerSecond
}

func (r zoneRun) paused() bool {
	return r.PausedAt != nil
}

func (r zoneRun) schedule() CurrentSchedule {
	status := StatusRunning
	if r.paused() {
		status = StatusPaused
	}
	return CurrentSchedule{
		DeviceID:   r.DeviceID,
		ZoneID:     r.ZoneID,
		ZoneNumber: r.ZoneNumber,
		Status:     status,
		Type:       r.Type,
		StartDate:  r.StartedAt,
		Duration:   r.Duration,
	}
}
