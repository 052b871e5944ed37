package resource

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nerrad567/gray-logic-irrigation/internal/datastore"
)

// refreshKey is the single singleflight key: each Refreshable has exactly one
// pending-refresh slot.
const refreshKey = "refresh"

// Snapshot is an immutable, fully hydrated state captured by a refresh.
type Snapshot[T any] struct {
	Value       T
	RefreshedAt time.Time
}

// Policy decides whether a logical read must go back to the store.
type Policy interface {
	// Stale reports whether a snapshot taken at refreshedAt must be replaced at now.
	Stale(refreshedAt, now time.Time) bool
}

type alwaysRefresh struct{}

func (alwaysRefresh) Stale(time.Time, time.Time) bool { return true }

// AlwaysRefresh re-fetches on every logical read. It is the default.
var AlwaysRefresh Policy = alwaysRefresh{}

type ttlPolicy time.Duration

func (p ttlPolicy) Stale(refreshedAt, now time.Time) bool {
	return now.Sub(refreshedAt) >= time.Duration(p)
}

// TTLPolicy reuses a snapshot younger than ttl. A non-positive ttl behaves
// like AlwaysRefresh.
func TTLPolicy(ttl time.Duration) Policy {
	if ttl <= 0 {
		return AlwaysRefresh
	}
	return ttlPolicy(ttl)
}

// HydrateFunc turns the fields of a fetched resource into its typed state.
// The store is passed so that hydrated children can issue their own requests.
type HydrateFunc[T any] func(store datastore.Store, f Fields) (T, error)

// Option configures refreshable resources and devices.
type Option func(*options)

type options struct {
	policy Policy
	now    func() time.Time
	logger Logger
}

func buildOptions(opts []Option) options {
	o := options{
		policy: AlwaysRefresh,
		now:    time.Now,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPolicy sets the refresh policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithClock sets the clock used for snapshot timestamps and day windows.
// Its location decides where "today" begins.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Refreshable is a resource whose state is pulled on demand and cached as a
// snapshot.
//
// Concurrent refreshes share one in-flight request. The request runs detached
// from the caller's cancellation: a caller whose context ends stops waiting,
// but the fetch still completes and updates the snapshot. A failed refresh
// leaves the previous snapshot in place and returns the error to every caller
// that joined it.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Refreshable[T any] struct {
	Resource

	hydrate HydrateFunc[T]
	opts    options

	group    singleflight.Group
	snapshot atomic.Pointer[Snapshot[T]]
}

// NewRefreshable creates a Refreshable over res.
func NewRefreshable[T any](res Resource, hydrate HydrateFunc[T], opts ...Option) *Refreshable[T] {
	return &Refreshable[T]{
		Resource: res,
		hydrate:  hydrate,
		opts:     buildOptions(opts),
	}
}

// Get returns the current state, refreshing when the policy says the cached
// snapshot is stale (always, by default).
func (r *Refreshable[T]) Get(ctx context.Context) (T, error) {
	if snap := r.snapshot.Load(); snap != nil && !r.opts.policy.Stale(snap.RefreshedAt, r.opts.now()) {
		return snap.Value, nil
	}
	return r.Refresh(ctx)
}

// Refresh fetches the resource with its default arguments.
func (r *Refreshable[T]) Refresh(ctx context.Context) (T, error) {
	return r.RefreshWith(ctx, nil)
}

// RefreshWith fetches the resource with explicit template arguments. Nil args
// bind {id} to the resource id. A call made while another refresh is pending
// joins it, whatever its args.
func (r *Refreshable[T]) RefreshWith(ctx context.Context, args datastore.Args) (T, error) {
	var zero T

	if args == nil {
		args = r.Args()
	}

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return r.fetch(context.WithoutCancel(ctx), args)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(*Snapshot[T]).Value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cached returns the last successful snapshot without I/O.
func (r *Refreshable[T]) Cached() (Snapshot[T], bool) {
	snap := r.snapshot.Load()
	if snap == nil {
		return Snapshot[T]{}, false
	}
	return *snap, true
}

func (r *Refreshable[T]) fetch(ctx context.Context, args datastore.Args) (*Snapshot[T], error) {
	raw, err := r.store.Fetch(ctx, r.template, args)
	if err != nil {
		r.opts.logger.Warn("refresh failed", "template", r.template, "id", r.id, "error", err)
		return nil, err
	}

	fields, err := DecodeFields(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.template, err)
	}

	value, err := r.hydrate(r.store, fields)
	if err != nil {
		return nil, fmt.Errorf("hydrating %s: %w", r.template, err)
	}

	snap := &Snapshot[T]{Value: value, RefreshedAt: r.opts.now()}
	r.snapshot.Store(snap)

	r.opts.logger.Debug("refreshed", "template", r.template, "id", r.id)
	return snap, nil
}
