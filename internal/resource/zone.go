package resource

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
)

// MaxZoneRun is the longest manual zone run accepted by Zone.Start.
const MaxZoneRun = 3 * time.Hour

// Zone is one irrigation zone of a device.
type Zone struct {
	Resource

	Number      int
	Name        string
	Enabled     bool
	Runtime     time.Duration
	LastWatered time.Time

	// Nozzle is nil when the zone reports no custom nozzle.
	Nozzle *Nozzle

	// Fields holds the remaining scalar state.
	Fields Fields
}

// clone returns a copy of z sharing no mutable state with it.
func (z *Zone) clone() *Zone {
	c := *z
	if z.Nozzle != nil {
		n := *z.Nozzle
		c.Nozzle = &n
	}
	c.Fields = maps.Clone(z.Fields)
	return &c
}

// Nozzle describes a zone's sprinkler head.
type Nozzle struct {
	Name          string
	InchesPerHour float64
}

func newZone(store datastore.Store, f Fields) (*Zone, error) {
	nozzle, ok, err := HydrateOne(f, "customNozzle", func(nf Fields) (*Nozzle, error) {
		return &Nozzle{
			Name:          nf.String("name"),
			InchesPerHour: nf.Float("inchesPerHour"),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		nozzle = nil
	}

	return &Zone{
		Resource:    NewResource(f.String("id"), ZoneTemplate, store),
		Number:      f.Int("zoneNumber"),
		Name:        f.String("name"),
		Enabled:     f.Bool("enabled"),
		Runtime:     f.Seconds("runtime"),
		LastWatered: f.Time("lastWateredDate"),
		Nozzle:      nozzle,
		Fields:      f.Without("customNozzle"),
	}, nil
}

// Start runs the zone for d. d must be between 0 and MaxZoneRun.
func (z *Zone) Start(ctx context.Context, d time.Duration) error {
	if err := checkDuration("zone run", d, MaxZoneRun); err != nil {
		return err
	}
	return z.store.Write(ctx, ZoneStartTemplate, datastore.Args{
		"id":       z.id,
		"duration": seconds(d),
	})
}

// checkDuration enforces 0 <= d <= limit.
func checkDuration(what string, d, limit time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: minimum %s of 0 seconds, got %v", ErrInvalidDuration, what, d)
	}
	if d > limit {
		return fmt.Errorf("%w: maximum %s of %v, got %v", ErrInvalidDuration, what, limit, d)
	}
	return nil
}

// seconds converts d to the whole seconds used on the wire.
func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// ZoneFetcher reads single zones. It does not cache.
type ZoneFetcher struct {
	store datastore.Store
}

// NewZoneFetcher creates a ZoneFetcher.
func NewZoneFetcher(store datastore.Store) ZoneFetcher {
	return ZoneFetcher{store: store}
}

// Get fetches the zone with the given id.
func (z ZoneFetcher) Get(ctx context.Context, id string) (*Zone, error) {
	raw, err := z.store.Fetch(ctx, ZoneTemplate, datastore.Args{"id": id})
	if err != nil {
		return nil, err
	}
	f, err := DecodeFields(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding zone %s: %w", id, err)
	}
	return newZone(z.store, f)
}
