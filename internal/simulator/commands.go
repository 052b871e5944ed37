package simulator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Command bounds, in seconds.
const (
	MaxRainDelay = int64(7 * 24 * time.Hour / time.Second)
	MaxPause     = int64(time.Hour / time.Second)
	MaxZoneRun   = int64(3 * time.Hour / time.Second)
)

const runTypeManual = "MANUAL"

func checkDuration(what string, secs, limit int64) error {
	if secs < 0 || secs > limit {
		return fmt.Errorf("%w: %s must be between 0 and %d seconds, got %d", ErrInvalidDuration, what, limit, secs)
	}
	return nil
}

// StopWater ends the run in progress on deviceID, if any.
func (s *Store) StopWater(ctx context.Context, deviceID string) error {
	now := s.nowMillis()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := requireDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		run, ok, err := settleRun(ctx, tx, deviceID, now)
		if err != nil || !ok {
			return err
		}
		if err := deleteRun(ctx, tx, deviceID); err != nil {
			return err
		}
		return addEvent(ctx, tx, Event{
			DeviceID:  deviceID,
			Category:  CategoryDevice,
			Type:      EventZoneStatus,
			SubType:   "ZONE_STOPPED",
			Summary:   fmt.Sprintf("Zone %d was stopped manually.", run.ZoneNumber),
			EventDate: now,
		})
	})
}

// SetOn takes deviceID out of standby (on) or puts it in standby. Standby
// also stops any run.
func (s *Store) SetOn(ctx context.Context, deviceID string, on bool) error {
	now := s.nowMillis()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE devices SET is_on = ? WHERE id = ?`, on, deviceID)
		if err != nil {
			return fmt.Errorf("updating device: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDeviceNotFound
		}

		subType, summary := "ON", "Device standby mode turned off."
		if !on {
			subType, summary = "OFF", "Device was placed in standby mode."
			if err := deleteRun(ctx, tx, deviceID); err != nil {
				return err
			}
		}
		return addEvent(ctx, tx, Event{
			DeviceID:  deviceID,
			Category:  CategoryDevice,
			Type:      EventDeviceStatus,
			SubType:   subType,
			Summary:   summary,
			EventDate: now,
		})
	})
}

// RainDelay suspends schedules on deviceID for secs seconds. Zero clears the
// delay.
func (s *Store) RainDelay(ctx context.Context, deviceID string, secs int64) error {
	if err := checkDuration("rain delay", secs, MaxRainDelay); err != nil {
		return err
	}

	now := s.nowMillis()
	var start, until *int64
	subType, summary := "RAIN_DELAY_OFF", "Rain delay was cancelled."
	if secs > 0 {
		end := now + secs*msPerSecond
		start, until = &now, &end
		subType = "RAIN_DELAY_ON"
		summary = fmt.Sprintf("Rain delay set until %s.", time.UnixMilli(end).UTC().Format(time.RFC3339))
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE devices SET rain_delay_start = ?, rain_delay_until = ? WHERE id = ?`,
			start, until, deviceID)
		if err != nil {
			return fmt.Errorf("updating rain delay: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDeviceNotFound
		}
		return addEvent(ctx, tx, Event{
			DeviceID:  deviceID,
			Category:  CategorySchedule,
			Type:      EventRainDelay,
			SubType:   subType,
			Summary:   summary,
			EventDate: now,
		})
	})
}

// PauseZoneRun pauses the run on deviceID for secs seconds. Zero pauses
// until ResumeZoneRun. Pausing a paused run resets its expiry.
func (s *Store) PauseZoneRun(ctx context.Context, deviceID string, secs int64) error {
	if err := checkDuration("pause", secs, MaxPause); err != nil {
		return err
	}

	now := s.nowMillis()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := requireDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		run, ok, err := settleRun(ctx, tx, deviceID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoActiveRun
		}

		if !run.paused() {
			run.PausedAt = &now
		}
		run.PausedUntil = nil
		if secs > 0 {
			until := now + secs*msPerSecond
			run.PausedUntil = &until
		}
		return saveRun(ctx, tx, run)
	})
}

// ResumeZoneRun resumes a paused run on deviceID. A running zone is left as is.
func (s *Store) ResumeZoneRun(ctx context.Context, deviceID string) error {
	now := s.nowMillis()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := requireDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		run, ok, err := settleRun(ctx, tx, deviceID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoActiveRun
		}
		if !run.paused() {
			return nil
		}

		run.StartedAt += now - *run.PausedAt
		run.PausedAt = nil
		run.PausedUntil = nil
		return saveRun(ctx, tx, run)
	})
}

// StartZone runs zoneID for secs seconds, replacing any run on its device.
// Zero uses the zone's configured runtime.
func (s *Store) StartZone(ctx context.Context, zoneID string, secs int64) error {
	if err := checkDuration("zone run", secs, MaxZoneRun); err != nil {
		return err
	}

	now := s.nowMillis()
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		z, err := scanZone(tx.QueryRowContext(ctx, zoneSelect+` WHERE id = ?`, zoneID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrZoneNotFound
		}
		if err != nil {
			return fmt.Errorf("querying zone: %w", err)
		}
		if !z.Enabled {
			return ErrZoneDisabled
		}

		var on bool
		if err := tx.QueryRowContext(ctx, `SELECT is_on FROM devices WHERE id = ?`, z.DeviceID).Scan(&on); err != nil {
			return fmt.Errorf("querying device: %w", err)
		}
		if !on {
			return ErrStandby
		}

		if secs == 0 {
			secs = z.Runtime
		}
		run := zoneRun{
			DeviceID:   z.DeviceID,
			ZoneID:     z.ID,
			ZoneNumber: z.ZoneNumber,
			Type:       runTypeManual,
			StartedAt:  now,
			Duration:   secs,
		}
		if err := saveRun(ctx, tx, run); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE zones SET last_watered_date = ? WHERE id = ?`, now, z.ID); err != nil {
			return fmt.Errorf("updating zone: %w", err)
		}
		return addEvent(ctx, tx, Event{
			DeviceID:  z.DeviceID,
			Category:  CategoryDevice,
			Type:      EventZoneStatus,
			SubType:   "ZONE_STARTED",
			Summary:   fmt.Sprintf("%s began watering for %d minutes.", z.Name, secs/60),
			EventDate: now,
		})
	})
}

func deleteRun(ctx context.Context, tx *sql.Tx, deviceID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM zone_runs WHERE device_id = ?`, deviceID); err != nil {
		return fmt.Errorf("deleting zone run: %w", err)
	}
	return nil
}

// addEvent records e, assigning an id when it has none.
func addEvent(ctx context.Context, q querier, e Event) error {
	const query = `
		INSERT INTO events (id, device_id, event_date, category, type, sub_type, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, err := q.ExecContext(ctx, query, e.ID, e.DeviceID, e.EventDate, e.Category, e.Type, e.SubType, e.Summary); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}
