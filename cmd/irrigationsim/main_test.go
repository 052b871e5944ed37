package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_InvalidConfigPath(t *testing.T) {
	t.Setenv("IRRIGATION_CONFIG", "/nonexistent/path/irrigation.yaml")

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)
	content := fmt.Sprintf(`
site:
  id: test-site
simulator:
  host: "127.0.0.1"
  port: %d
  seed: true
  device_id: "sim-device"
database:
  path: %q
logging:
  level: warn
`, port, filepath.Join(dir, "sim.db"))

	configPath := filepath.Join(dir, "irrigation.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("IRRIGATION_CONFIG", configPath)
	t.Setenv("IRRIGATION_CLOUD_TOKEN", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/device/sim-device", port)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("GET device status = %d, want 200", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("simulator did not start: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}
