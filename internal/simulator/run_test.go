package simulator

import "testing"

func ptr(v int64) *int64 { return &v }

func TestZoneRun_At(t *testing.T) {
	base := zoneRun{DeviceID: "d", ZoneID: "z", ZoneNumber: 2, Type: runTypeManual, StartedAt: 1_000_000, Duration: 600}

	tests := []struct {
		name        string
		run         zoneRun
		now         int64
		wantOK      bool
		wantPaused  bool
		wantStarted int64
	}{
		{
			name:        "running",
			run:         base,
			now:         1_000_000 + 300_000,
			wantOK:      true,
			wantStarted: 1_000_000,
		},
		{
			name:   "finished exactly at end",
			run:    base,
			now:    1_000_000 + 600_000,
			wantOK: false,
		},
		{
			name: "paused indefinitely",
			run: func() zoneRun {
				r := base
				r.PausedAt = ptr(1_100_000)
				return r
			}(),
			now:         1_000_000 + 10_000_000,
			wantOK:      true,
			wantPaused:  true,
			wantStarted: 1_000_000,
		},
		{
			name: "pause still in effect",
			run: func() zoneRun {
				r := base
				r.PausedAt = ptr(1_100_000)
				r.PausedUntil = ptr(1_400_000)
				return r
			}(),
			now:         1_300_000,
			wantOK:      true,
			wantPaused:  true,
			wantStarted: 1_000_000,
		},
		{
			name: "pause expired shifts start",
			run: func() zoneRun {
				r := base
				r.PausedAt = ptr(1_100_000)
				r.PausedUntil = ptr(1_400_000)
				return r
			}(),
			now:         1_500_000,
			wantOK:      true,
			wantStarted: 1_300_000,
		},
		{
			name: "pause expired and remaining time elapsed",
			run: func() zoneRun {
				r := base
				r.PausedAt = ptr(1_100_000)
				r.PausedUntil = ptr(1_400_000)
				return r
			}(),
			now:    1_300_000 + 600_000,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.run.at(tt.now)
			if ok != tt.wantOK {
				t.Fatalf("at() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.paused() != tt.wantPaused {
				t.Errorf("paused() = %v, want %v", got.paused(), tt.wantPaused)
			}
			if got.StartedAt != tt.wantStarted {
				t.Errorf("StartedAt = %d, want %d", got.StartedAt, tt.wantStarted)
			}
		})
	}
}

func TestZoneRun_Schedule(t *testing.T) {
	r := zoneRun{DeviceID: "d", ZoneID: "z", ZoneNumber: 3, Type: runTypeManual, StartedAt: 42, Duration: 60}

	got := r.schedule()
	if got.Status != StatusRunning || got.ZoneID != "z" || got.ZoneNumber != 3 || got.Duration != 60 {
		t.Errorf("schedule() = %+v", got)
	}

	r.PausedAt = ptr(50)
	if got := r.schedule(); got.Status != StatusPaused {
		t.Errorf("paused schedule status = %q, want %q", got.Status, StatusPaused)
	}
}
