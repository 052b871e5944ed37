package simulator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

type seedZone struct {
	name      string
	runtime   int64
	enabled   bool
	nozzle    string
	nozzleIPH float64
}

var seedZones = []seedZone{
	{name: "Front Lawn", runtime: 900, enabled: true, nozzle: "Fixed Spray Head", nozzleIPH: 1.4},
	{name: "Back Lawn", runtime: 1200, enabled: true, nozzle: "Rotor Head", nozzleIPH: 0.5},
	{name: "Vegetable Beds", runtime: 600, enabled: true},
	{name: "Drip Line", runtime: 1800, enabled: false},
}

// Seed creates a demo device on an empty database and generates its weather.
//
// Parameters:
//   - ctx: Context for cancellation
//   - deviceID: Id of the new device; empty generates one
//
// Returns:
//   - string: The seeded device id, empty when the database already had devices
//   - error: If any insert fails
func (s *Store) Seed(ctx context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	now := s.now().UTC()

	seeded := false
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&count); err != nil {
			return fmt.Errorf("counting devices: %w", err)
		}
		if count > 0 {
			return nil
		}
		if err := seedDevice(ctx, tx, deviceID, now); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil || !seeded {
		return "", err
	}

	if err := s.RollWeather(ctx); err != nil {
		return "", err
	}
	return deviceID, nil
}

func seedDevice(ctx context.Context, tx *sql.Tx, deviceID string, now time.Time) error {
	const (
		insertDevice = `
			INSERT INTO devices (id, name, serial_number, model, status, is_on, created_at)
			VALUES (?, ?, ?, ?, 'ONLINE', 1, ?)`
		insertZone = `
			INSERT INTO zones (id, device_id, zone_number, name, enabled, runtime, nozzle_name, nozzle_iph)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		insertRule = `
			INSERT INTO schedule_rules (id, device_id, name, enabled, flex, start_date, total_duration, external_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	)

	nowMs := now.UnixMilli()
	if _, err := tx.ExecContext(ctx, insertDevice, deviceID, "Garden Controller", "SIM-0001", "GENERATION3_8ZONE", nowMs); err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}

	var total int64
	for i, z := range seedZones {
		var nozzle, iph any
		if z.nozzle != "" {
			nozzle, iph = z.nozzle, z.nozzleIPH
		}
		if _, err := tx.ExecContext(ctx, insertZone, uuid.NewString(), deviceID, i+1, z.name, z.enabled, z.runtime, nozzle, iph); err != nil {
			return fmt.Errorf("inserting zone %d: %w", i+1, err)
		}
		if z.enabled {
			total += z.runtime
		}
	}

	tomorrow := query.AddTime(query.StartOfDay(now), 1, query.Day).Add(6 * time.Hour).UnixMilli()
	rules := []struct {
		name    string
		enabled bool
		flex    bool
		start   any
	}{
		{name: "Early Morning", enabled: true, start: tomorrow},
		{name: "Summer Evenings", enabled: false, start: nil},
		{name: "Smart Cycle", enabled: true, flex: true},
	}
	for _, r := range rules {
		if _, err := tx.ExecContext(ctx, insertRule, uuid.NewString(), deviceID, r.name, r.enabled, r.flex, r.start, total, r.name); err != nil {
			return fmt.Errorf("inserting rule %q: %w", r.name, err)
		}
	}

	history := []Event{
		{Category: CategoryDevice, Type: EventDeviceStatus, SubType: "ONLINE", Summary: "Device came online.",
			EventDate: query.AddTime(now, -3, query.Day).UnixMilli()},
		{Category: CategorySchedule, Type: "SCHEDULE_STATUS", SubType: "SCHEDULE_COMPLETED", Summary: "Early Morning completed.",
			EventDate: query.AddTime(now, -2, query.Day).UnixMilli()},
		{Category: CategorySchedule, Type: "WEATHER_INTELLIGENCE", SubType: "WEATHER_INTELLIGENCE_SKIP", Summary: "Early Morning skipped because of rain.",
			EventDate: query.AddTime(now, -1, query.Day).UnixMilli()},
	}
	for _, e := range history {
		e.DeviceID = deviceID
		if err := addEvent(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}
