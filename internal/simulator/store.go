package simulator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/database"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store persists simulator state in SQLite.
//
// Rain delays and zone runs expire lazily: reads compare their bounds with
// the store clock and commands settle the current run before changing it.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore creates a Store over a migrated database. A nil now uses time.Now.
func NewStore(db *database.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Device returns a device with its zones and rules.
func (s *Store) Device(ctx context.Context, id string) (*Device, error) {
	const query = `
		SELECT id, name, serial_number, model, status, is_on,
		       rain_delay_start, rain_delay_until, created_at
		FROM devices WHERE id = ?`

	d, err := s.scanDevice(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if d.Zones, err = s.zonesByDevice(ctx, id); err != nil {
		return nil, err
	}
	if d.ScheduleRules, d.FlexScheduleRules, err = s.rulesByDevice(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

// DeviceIDs lists every device id in creation order.
func (s *Store) DeviceIDs(ctx context.Context) ([]string, error) {
	return deviceIDs(ctx, s.db)
}

func deviceIDs(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM devices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning device id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Zone returns a single zone.
func (s *Store) Zone(ctx context.Context, id string) (*Zone, error) {
	z, err := scanZone(s.db.QueryRowContext(ctx, zoneSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrZoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying zone: %w", err)
	}
	return z, nil
}

// CurrentSchedule returns the run in progress on deviceID, if any.
func (s *Store) CurrentSchedule(ctx context.Context, deviceID string) (CurrentSchedule, error) {
	now := s.nowMillis()
	sched := CurrentSchedule{DeviceID: deviceID, Status: StatusIdle}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := requireDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		run, ok, err := settleRun(ctx, tx, deviceID, now)
		if err != nil {
			return err
		}
		if ok {
			sched = run.schedule()
		}
		return nil
	})
	if err != nil {
		return CurrentSchedule{}, err
	}
	return sched, nil
}

// Conditions returns the latest observed weather at deviceID.
func (s *Store) Conditions(ctx context.Context, deviceID string, units Units) (Conditions, error) {
	const query = `
		SELECT observed_at, summary, temperature, humidity, wind_speed,
		       precip_intensity, precip_probability
		FROM conditions WHERE device_id = ?`

	if err := requireDevice(ctx, s.db, deviceID); err != nil {
		return Conditions{}, err
	}

	var c Conditions
	err := s.db.QueryRowContext(ctx, query, deviceID).Scan(
		&c.Time, &c.WeatherSummary, &c.CurrentTemperature, &c.Humidity,
		&c.WindSpeed, &c.PrecipIntensity, &c.PrecipProbability,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Conditions{Time: s.nowMillis()}, nil
	}
	if err != nil {
		return Conditions{}, fmt.Errorf("querying conditions: %w", err)
	}
	return units.conditions(c), nil
}

// Forecast returns the forecast days of deviceID within [start, end].
// A nil bound is open.
func (s *Store) Forecast(ctx context.Context, deviceID string, start, end *int64, units Units) ([]ForecastDay, error) {
	const query = `
		SELECT day, summary, temperature_min, temperature_max,
		       precip_intensity, precip_probability
		FROM forecast_days
		WHERE device_id = ?
		  AND (? IS NULL OR day >= ?)
		  AND (? IS NULL OR day <= ?)
		ORDER BY day`

	if err := requireDevice(ctx, s.db, deviceID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, deviceID, start, start, end, end)
	if err != nil {
		return nil, fmt.Errorf("querying forecast: %w", err)
	}
	defer rows.Close()

	days := []ForecastDay{}
	for rows.Next() {
		var f ForecastDay
		if err := rows.Scan(&f.Time, &f.WeatherSummary, &f.TemperatureMin, &f.TemperatureMax,
			&f.PrecipIntensity, &f.PrecipProbability); err != nil {
			return nil, fmt.Errorf("scanning forecast: %w", err)
		}
		days = append(days, units.forecast(f))
	}
	return days, rows.Err()
}

// Events returns the history of deviceID within [start, end], oldest first.
// A nil bound is open.
func (s *Store) Events(ctx context.Context, deviceID string, start, end *int64) ([]Event, error) {
	const query = `
		SELECT id, device_id, category, type, sub_type, summary, event_date
		FROM events
		WHERE device_id = ?
		  AND (? IS NULL OR event_date >= ?)
		  AND (? IS NULL OR event_date <= ?)
		ORDER BY event_date, id`

	if err := requireDevice(ctx, s.db, deviceID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, deviceID, start, start, end, end)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Category, &e.Type, &e.SubType, &e.Summary, &e.EventDate); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) scanDevice(row *sql.Row) (*Device, error) {
	var (
		d          Device
		delayStart sql.NullInt64
		delayUntil sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.Name, &d.SerialNumber, &d.Model, &d.Status, &d.On,
		&delayStart, &delayUntil, &d.CreatedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying device: %w", err)
	}

	if delayUntil.Valid && delayUntil.Int64 > s.nowMillis() {
		d.RainDelayExpirationDate = &delayUntil.Int64
		if delayStart.Valid {
			d.RainDelayStartDate = &delayStart.Int64
		}
	}
	return &d, nil
}

const zoneSelect = `
	SELECT id, device_id, zone_number, name, enabled, runtime,
	       last_watered_date, nozzle_name, nozzle_iph
	FROM zones`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZone(row rowScanner) (*Zone, error) {
	var (
		z           Zone
		lastWatered sql.NullInt64
		nozzleName  sql.NullString
		nozzleIPH   sql.NullFloat64
	)
	if err := row.Scan(&z.ID, &z.DeviceID, &z.ZoneNumber, &z.Name, &z.Enabled, &z.Runtime,
		&lastWatered, &nozzleName, &nozzleIPH); err != nil {
		return nil, err
	}
	if lastWatered.Valid {
		z.LastWateredDate = &lastWatered.Int64
	}
	if nozzleName.Valid {
		z.CustomNozzle = &Nozzle{Name: nozzleName.String, InchesPerHour: nozzleIPH.Float64}
	}
	return &z, nil
}

func (s *Store) zonesByDevice(ctx context.Context, deviceID string) ([]Zone, error) {
	rows, err := s.db.QueryContext(ctx, zoneSelect+` WHERE device_id = ? ORDER BY zone_number`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	zones := []Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

func (s *Store) rulesByDevice(ctx context.Context, deviceID string) ([]ScheduleRule, []FlexScheduleRule, error) {
	const query = `
		SELECT id, name, enabled, flex, start_date, total_duration, external_name
		FROM schedule_rules WHERE device_id = ? ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying schedule rules: %w", err)
	}
	defer rows.Close()

	rules := []ScheduleRule{}
	flex := []FlexScheduleRule{}
	for rows.Next() {
		var (
			r         ScheduleRule
			isFlex    bool
			startDate sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Enabled, &isFlex, &startDate, &r.TotalDuration, &r.ExternalName); err != nil {
			return nil, nil, fmt.Errorf("scanning schedule rule: %w", err)
		}
		if isFlex {
			flex = append(flex, FlexScheduleRule{ID: r.ID, Name: r.Name, Enabled: r.Enabled})
			continue
		}
		if startDate.Valid {
			r.StartDate = &startDate.Int64
		}
		rules = append(rules, r)
	}
	return rules, flex, rows.Err()
}

// requireDevice returns ErrDeviceNotFound unless id exists.
func requireDevice(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM devices WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return fmt.Errorf("querying device: %w", err)
	}
	return nil
}

// settleRun loads the run of deviceID as of now, deleting it when finished
// and writing back an expired pause.
func settleRun(ctx context.Context, q querier, deviceID string, now int64) (zoneRun, bool, error) {
	const query = `
		SELECT r.device_id, r.zone_id, z.zone_number, r.run_type, r.started_at,
		       r.duration, r.paused_at, r.paused_until
		FROM zone_runs r JOIN zones z ON z.id = r.zone_id
		WHERE r.device_id = ?`

	var (
		stored      zoneRun
		pausedAt    sql.NullInt64
		pausedUntil sql.NullInt64
	)
	err := q.QueryRowContext(ctx, query, deviceID).Scan(&stored.DeviceID, &stored.ZoneID, &stored.ZoneNumber,
		&stored.Type, &stored.StartedAt, &stored.Duration, &pausedAt, &pausedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return zoneRun{}, false, nil
	}
	if err != nil {
		return zoneRun{}, false, fmt.Errorf("querying zone run: %w", err)
	}
	if pausedAt.Valid {
		stored.PausedAt = &pausedAt.Int64
	}
	if pausedUntil.Valid {
		stored.PausedUntil = &pausedUntil.Int64
	}

	run, ok := stored.at(now)
	switch {
	case !ok:
		if _, err := q.ExecContext(ctx, `DELETE FROM zone_runs WHERE device_id = ?`, deviceID); err != nil {
			return zoneRun{}, false, fmt.Errorf("expiring zone run: %w", err)
		}
		return zoneRun{}, false, nil
	case stored.paused() && !run.paused():
		if err := saveRun(ctx, q, run); err != nil {
			return zoneRun{}, false, err
		}
	}
	return run, true, nil
}

func saveRun(ctx context.Context, q querier, r zoneRun) error {
	const query = `
		INSERT INTO zone_runs (device_id, zone_id, run_type, started_at, duration, paused_at, paused_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			zone_id = excluded.zone_id,
			run_type = excluded.run_type,
			started_at = excluded.started_at,
			duration = excluded.duration,
			paused_at = excluded.paused_at,
			paused_until = excluded.paused_until`

	if _, err := q.ExecContext(ctx, query, r.DeviceID, r.ZoneID, r.Type, r.StartedAt, r.Duration,
		r.PausedAt, r.PausedUntil); err != nil {
		return fmt.Errorf("saving zone run: %w", err)
	}
	return nil
}
