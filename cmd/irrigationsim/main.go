// Gray Logic Irrigation cloud simulator.
//
// irrigationsim serves the irrigation cloud API from a local SQLite database
// so the daemon can be developed and tested without a real controller.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-irrigation/internal/simulator"
	"github.com/nerrad567/gray-logic-irrigation/migrations"
)

var (
	version = "dev"
	commit  = "unknown"
)

const (
	serviceName       = "irrigationsim"
	defaultConfigPath = "configs/irrigation.yaml"

	// weatherSchedule re-rolls the forecast window and current conditions.
	weatherSchedule = "@hourly"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("IRRIGATION_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Logging, serviceName, version)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Close() //nolint:errcheck // shutdown path
	log.Info("starting irrigation simulator", "version", version, "commit", commit, "config", configPath)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())

	store := simulator.NewStore(db, nil)
	if cfg.Simulator.Seed {
		id, seedErr := store.Seed(ctx, cfg.Simulator.DeviceID)
		if seedErr != nil {
			return fmt.Errorf("seeding simulator: %w", seedErr)
		}
		if id != "" {
			log.Info("seeded demo device", "device_id", id)
		}
	}
	if err := store.RollWeather(ctx); err != nil {
		return fmt.Errorf("generating weather: %w", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(weatherSchedule, func() {
		if rollErr := store.RollWeather(ctx); rollErr != nil {
			log.Error("weather roll failed", "error", rollErr)
		}
	}); err != nil {
		return fmt.Errorf("scheduling weather: %w", err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	ids, err := store.DeviceIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	srv, err := simulator.New(simulator.Deps{
		Config: cfg.Simulator,
		Token:  cfg.Cloud.Token,
		Store:  store,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting simulator: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing simulator", "error", closeErr)
		}
	}()

	log.Info("simulator ready",
		"base_url", fmt.Sprintf("http://%s:%d/", cfg.Simulator.Host, cfg.Simulator.Port),
		"devices", ids,
		"auth", cfg.Cloud.Token != "",
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}
