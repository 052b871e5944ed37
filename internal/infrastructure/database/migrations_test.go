package database

import (
	"context"
	"embed"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"
)

//go:embed testdata/*.sql
var testdataFS embed.FS

func testMigrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(testdataFS, "testdata")
	if err != nil {
		t.Fatalf("fs.Sub() error = %v", err)
	}
	return sub
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	src := testMigrations(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if !tableExists(t, db, "test_valves") {
		t.Fatal("table test_valves not created")
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO test_valves (id, name, flow_rate) VALUES ('v1', 'front', 1.5)"); err != nil {
		t.Errorf("second migration not applied: %v", err)
	}

	applied, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].Version != "20260301_090000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("applied[0] = %+v", applied[0])
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrationStatus_BeforeMigrate(t *testing.T) {
	db := openTestDB(t)

	applied, pending, err := db.MigrationStatus(context.Background(), testMigrations(t))
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 0 || len(pending) != 2 {
		t.Fatalf("applied=%d pending=%d, want 0/2", len(applied), len(pending))
	}
	if pending[0].Name != "create_valves" || pending[1].Name != "add_flow" {
		t.Errorf("pending order = %q, %q", pending[0].Name, pending[1].Name)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src := fstest.MapFS{
		"20260301_090000_create_valves.up.sql":   {Data: []byte("CREATE TABLE test_valves (id TEXT PRIMARY KEY);")},
		"20260301_090000_create_valves.down.sql": {Data: []byte("DROP TABLE test_valves;")},
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "test_valves") {
		t.Error("table test_valves should have been dropped")
	}
	applied, _, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied migrations after rollback, got %d", len(applied))
	}

	if err := db.MigrateDown(ctx, src); err != nil {
		t.Errorf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrations(t)); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, testMigrations(t)); err == nil {
		t.Error("MigrateDown() expected error for migration without down SQL")
	}
}

func TestMigrate_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  fstest.MapFS
	}{
		{
			name: "down without up",
			src: fstest.MapFS{
				"20260301_090000_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
			},
		},
		{
			name: "invalid SQL",
			src: fstest.MapFS{
				"20260301_090000_broken.up.sql": {Data: []byte("CREATE TABLOID x;")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			if err := db.Migrate(context.Background(), tt.src); err == nil {
				t.Error("Migrate() expected error, got nil")
			}
		})
	}
}

func TestMigrate_NilSource(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate(nil) error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{"valid up", "20260301_090000_create_devices.up.sql", "20260301_090000", true, true},
		{"valid down", "20260301_090000_create_devices.down.sql", "20260301_090000", false, true},
		{"not sql file", "readme.txt", "", false, false},
		{"missing direction", "20260301_090000_create_devices.sql", "", false, false},
		{"invalid format", "invalid.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && (version != tt.wantVersion || isUp != tt.wantIsUp) {
				t.Errorf("got (%q, %v), want (%q, %v)", version, isUp, tt.wantVersion, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260301_090000_create_devices.up.sql", "create_devices"},
		{"20260301_090000_seed_forecast.down.sql", "seed_forecast"},
		{"nodescription.up.sql", "nodescription"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
