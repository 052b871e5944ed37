package simulator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/logging"
)

const testToken = "sim-token"

func newTestServer(t *testing.T, s *Store) *httptest.Server {
	t.Helper()

	srv, err := New(Deps{
		Config: config.SimulatorConfig{Host: "127.0.0.1", Port: 0},
		Token:  testToken,
		Store:  s,
		Logger: logging.Default("irrigationsim-test"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{Logger: logging.Default("test")}); err == nil {
		t.Error("New() without store should fail")
	}
	if _, err := New(Deps{Store: &Store{}}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestServer_Auth(t *testing.T) {
	ts := newTestServer(t, newSeededStore(t, newFakeClock()))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health is open", "/health", "", http.StatusOK},
		{"missing token", "/device/" + testDeviceID, "", http.StatusUnauthorized},
		{"wrong token", "/device/" + testDeviceID, "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "/device/" + testDeviceID, "Basic " + testToken, http.StatusUnauthorized},
		{"valid token", "/device/" + testDeviceID, "Bearer " + testToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := ts.Client().Do(req)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("X-Request-ID header missing")
			}
		})
	}
}

func TestServer_Reads(t *testing.T) {
	clock := newFakeClock()
	s := newSeededStore(t, clock)
	ts := newTestServer(t, s)
	zone := zoneByNumber(t, s, 1)

	t.Run("device", func(t *testing.T) {
		resp := do(t, ts, http.MethodGet, "/device/"+testDeviceID, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body := decode[map[string]any](t, resp)
		for _, key := range []string{"id", "name", "on", "zones", "scheduleRules", "flexScheduleRules"} {
			if _, ok := body[key]; !ok {
				t.Errorf("device payload missing %q", key)
			}
		}
	})

	t.Run("zone", func(t *testing.T) {
		resp := do(t, ts, http.MethodGet, "/zone/"+zone.ID, "")
		got := decode[Zone](t, resp)
		if got.ID != zone.ID || got.ZoneNumber != 1 {
			t.Errorf("zone = %+v", got)
		}
	})

	t.Run("current schedule", func(t *testing.T) {
		got := decode[CurrentSchedule](t, do(t, ts, http.MethodGet, "/device/"+testDeviceID+"/current_schedule", ""))
		if got.Status != StatusIdle {
			t.Errorf("schedule = %+v, want idle", got)
		}
	})

	t.Run("conditions in US units", func(t *testing.T) {
		metric := decode[Conditions](t, do(t, ts, http.MethodGet, "/device/"+testDeviceID+"/current_conditions?units=METRIC", ""))
		us := decode[Conditions](t, do(t, ts, http.MethodGet, "/device/"+testDeviceID+"/current_conditions?units=US", ""))
		if us.CurrentTemperature != fahrenheit(metric.CurrentTemperature) {
			t.Errorf("US temperature = %v, metric %v", us.CurrentTemperature, metric.CurrentTemperature)
		}
	})

	t.Run("forecast with empty bounds", func(t *testing.T) {
		resp := do(t, ts, http.MethodGet, "/device/"+testDeviceID+"/forecast?units=&startTime=&endTime=", "")
		got := decode[struct {
			Forecast []ForecastDay `json:"forecast"`
		}](t, resp)
		if len(got.Forecast) != ForecastDays {
			t.Errorf("forecast days = %d, want %d", len(got.Forecast), ForecastDays)
		}
	})

	t.Run("events window", func(t *testing.T) {
		start := strconv.FormatInt(clock.Now().Add(-36*time.Hour).UnixMilli(), 10)
		resp := do(t, ts, http.MethodGet, "/device/"+testDeviceID+"/event?startTime="+start+"&endTime=", "")
		got := decode[struct {
			Events []Event `json:"events"`
		}](t, resp)
		if len(got.Events) != 1 {
			t.Errorf("events in last 36h = %d, want 1", len(got.Events))
		}
	})
}

func TestServer_ReadErrors(t *testing.T) {
	ts := newTestServer(t, newSeededStore(t, newFakeClock()))

	tests := []struct {
		name     string
		path     string
		want     int
		wantCode string
	}{
		{"unknown device", "/device/nope", http.StatusNotFound, ErrCodeNotFound},
		{"unknown zone", "/zone/nope", http.StatusNotFound, ErrCodeNotFound},
		{"bad units", "/device/" + testDeviceID + "/current_conditions?units=KELVIN", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad start", "/device/" + testDeviceID + "/forecast?startTime=yesterday", http.StatusBadRequest, ErrCodeBadRequest},
		{"inverted window", "/device/" + testDeviceID + "/event?startTime=200&endTime=100", http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodGet, tt.path, "")
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if got := decode[Error](t, resp); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestServer_Commands(t *testing.T) {
	s := newSeededStore(t, newFakeClock())
	ts := newTestServer(t, s)
	zone := zoneByNumber(t, s, 1)
	disabled := zoneByNumber(t, s, 4)

	dev := `{"id":"` + testDeviceID + `"}`
	withDuration := func(id string, secs int64) string {
		return `{"id":"` + id + `","duration":` + strconv.FormatInt(secs, 10) + `}`
	}

	// Steps run in order against shared state.
	steps := []struct {
		name string
		path string
		body string
		want int
	}{
		{"pause with nothing running", "/device/pause_zone_run", withDuration(testDeviceID, 60), http.StatusConflict},
		{"resume with nothing running", "/device/resume_zone_run", dev, http.StatusConflict},
		{"start disabled zone", "/zone/start", withDuration(disabled.ID, 60), http.StatusConflict},
		{"start zone too long", "/zone/start", withDuration(zone.ID, MaxZoneRun+1), http.StatusBadRequest},
		{"start unknown zone", "/zone/start", withDuration("nope", 60), http.StatusNotFound},
		{"start zone", "/zone/start", withDuration(zone.ID, 600), http.StatusNoContent},
		{"pause", "/device/pause_zone_run", withDuration(testDeviceID, 60), http.StatusNoContent},
		{"pause too long", "/device/pause_zone_run", withDuration(testDeviceID, MaxPause+1), http.StatusBadRequest},
		{"resume", "/device/resume_zone_run", dev, http.StatusNoContent},
		{"stop water", "/device/stop_water", dev, http.StatusNoContent},
		{"rain delay", "/device/rain_delay", withDuration(testDeviceID, 86400), http.StatusNoContent},
		{"rain delay negative", "/device/rain_delay", withDuration(testDeviceID, -1), http.StatusBadRequest},
		{"standby on", "/device/off", dev, http.StatusNoContent},
		{"start zone in standby", "/zone/start", withDuration(zone.ID, 600), http.StatusConflict},
		{"standby off", "/device/on", dev, http.StatusNoContent},
		{"unknown device", "/device/stop_water", `{"id":"nope"}`, http.StatusNotFound},
		{"missing id", "/device/stop_water", `{}`, http.StatusBadRequest},
		{"malformed body", "/device/stop_water", `{"id":`, http.StatusBadRequest},
	}

	for _, st := range steps {
		resp := do(t, ts, http.MethodPut, st.path, st.body)
		if resp.StatusCode != st.want {
			t.Errorf("%s: status = %d, want %d", st.name, resp.StatusCode, st.want)
		}
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	srv, err := New(Deps{Store: &Store{}, Logger: logging.Default("test")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A zero Store has no database, so the health handler panics.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
