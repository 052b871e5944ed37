// Package simulator is a local stand-in for the irrigation cloud service.
//
// It serves the same read and command endpoints over chi, keeps device,
// zone, schedule, weather and event state in SQLite and applies commands to
// that state: stop water clears the current run, standby stops it, rain
// delays and pauses expire on their own, and starting a zone records an
// event. Weather is synthetic and deterministic per calendar day.
//
// Usage:
//
//	db, _ := database.Open(cfg.Database)
//	_ = db.Migrate(ctx, migrations.FS)
//	store := simulator.NewStore(db, nil)
//	id, _ := store.Seed(ctx, cfg.Simulator.DeviceID)
//	srv, _ := simulator.New(simulator.Deps{Config: cfg.Simulator, Store: store, Logger: log})
//	_ = srv.Start(ctx)
//	defer srv.Close()
package simulator
