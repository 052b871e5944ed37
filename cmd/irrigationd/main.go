// Gray Logic Irrigation daemon.
//
// irrigationd polls an irrigation controller through the cloud API, publishes
// its state to MQTT, writes weather and watering metrics to InfluxDB and
// executes commands received over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/bridge"
	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-irrigation/internal/resource"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	serviceName       = "irrigationd"
	defaultConfigPath = "configs/irrigation.yaml"
	startupTimeout    = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the daemon and blocks until ctx is cancelled.
//
// With the bridge disabled it reads the device once, logs a summary and
// returns.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default(serviceName)
	log.Info("starting irrigation daemon",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)
	if cfg.Cloud.DeviceID == "" {
		return fmt.Errorf("cloud.device_id is required")
	}

	log, err = logging.New(cfg.Logging, serviceName, version)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Close() //nolint:errcheck // shutdown path

	store, err := datastore.NewHTTPStore(datastore.HTTPStoreOptions{
		BaseURL: cfg.Cloud.BaseURL,
		Token:   cfg.Cloud.Token,
		Timeout: cfg.GetRequestTimeout(),
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("creating data store: %w", err)
	}

	loc := cfg.GetLocation()
	dev := resource.NewDevice(store, cfg.Cloud.DeviceID,
		resource.WithPolicy(cachePolicy(cfg)),
		resource.WithClock(func() time.Time { return time.Now().In(loc) }),
		resource.WithLogger(log),
	)

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	state, err := dev.State(startCtx)
	if err != nil {
		return fmt.Errorf("reading device %s: %w", cfg.Cloud.DeviceID, err)
	}
	log.Info("device loaded",
		"device_id", state.ID,
		"name", state.Name,
		"on", state.On,
		"zones", len(state.Zones),
		"schedule_rules", len(state.ScheduleRules),
	)

	if !cfg.Bridge.Enabled {
		log.Info("bridge disabled, exiting")
		return nil
	}

	topics := mqtt.NewTopics(cfg.Bridge.TopicPrefix)
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	influxClient, err := connectInfluxDB(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(startCtx, mqttClient, influxClient); err != nil {
		log.Warn("startup health check failed", "error", err)
	}

	opts := bridge.Options{
		Device:        dev,
		MQTT:          mqttClient,
		Topics:        topics,
		Schedule:      cfg.Bridge.PollSchedule,
		RainThreshold: cfg.Bridge.RainThreshold,
		Units:         resource.Units(cfg.Bridge.Units),
		Logger:        log,
	}
	if influxClient != nil {
		opts.Metrics = influxClient
	}

	b, err := bridge.New(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer b.Stop()

	log.Info("irrigation daemon ready",
		"device_id", cfg.Cloud.DeviceID,
		"poll_schedule", cfg.Bridge.PollSchedule,
		"topic_prefix", topics.Prefix,
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns IRRIGATION_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("IRRIGATION_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// cachePolicy maps the cache section to a refresh policy.
func cachePolicy(cfg *config.Config) resource.Policy {
	if cfg.Cache.Policy == config.CachePolicyTTL {
		return resource.TTLPolicy(cfg.GetCacheTTL())
	}
	return resource.AlwaysRefresh
}

// connectInfluxDB returns nil without error when InfluxDB is disabled or
// unreachable; metrics are optional.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled, metrics will not be written")
		return nil, nil //nolint:nilnil // disabled is not an error
	case errors.Is(err, influxdb.ErrConnectionFailed):
		log.Warn("InfluxDB unavailable, metrics will not be written", "url", cfg.URL, "error", err)
		return nil, nil //nolint:nilnil // metrics are optional
	case err != nil:
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write failed", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "bucket", cfg.Bucket)
	return client, nil
}

func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
