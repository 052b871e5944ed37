package simulator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-irrigation/migrations"
)

const testDeviceID = "sim-device-1"

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestStore opens a migrated database in a temp dir.
func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "sim.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db, clock.Now)
}

// newSeededStore returns a store holding the demo device.
func newSeededStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()

	s := newTestStore(t, clock)
	id, err := s.Seed(context.Background(), testDeviceID)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if id != testDeviceID {
		t.Fatalf("Seed() id = %q, want %q", id, testDeviceID)
	}
	return s
}

// zoneByNumber returns a seeded zone.
func zoneByNumber(t *testing.T, s *Store, number int) Zone {
	t.Helper()

	d, err := s.Device(context.Background(), testDeviceID)
	if err != nil {
		t.Fatalf("Device() error = %v", err)
	}
	for _, z := range d.Zones {
		if z.ZoneNumber == number {
			return z
		}
	}
	t.Fatalf("zone %d not seeded", number)
	return Zone{}
}
