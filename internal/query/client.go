// Package query reads trip collections through the cache store: fresh
// entries are served locally, stale or missing ones are fetched from the
// remote API and stored.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"viagem/internal/cache"
)

// Options describes one cached query.
type Options[T any] struct {
	Key   cache.Key
	Fetch func(ctx context.Context) (T, error)
	// StaleTime is how long a stored value is served without refetching.
	// Zero or negative means every read refetches.
	StaleTime time.Duration
}

// Loader is implemented by every Options value so heterogeneous queries can
// be prefetched together.
type Loader interface {
	Load(ctx context.Context, c *Client) error
	Refetch(ctx context.Context, c *Client) error
	CacheKey() cache.Key
}

func (o Options[T]) Load(ctx context.Context, c *Client) error {
	_, err := Fetch(ctx, c, o)
	return err
}

// Refetch fetches o even when the stored value is fresh.
func (o Options[T]) Refetch(ctx context.Context, c *Client) error {
	_, err := fetch(ctx, c, o, true)
	return err
}

func (o Options[T]) CacheKey() cache.Key { return o.Key }

type Client struct {
	store  cache.Store
	group  singleflight.Group
	now    func() time.Time
	logger *slog.Logger
}

func NewClient(store cache.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{store: store, now: time.Now, logger: logger.With("component", "query")}
}

// Store exposes the underlying cache store to the cache services.
func (c *Client) Store() cache.Store { return c.store }

// Fresh reports whether key holds a value younger than staleTime.
func (c *Client) Fresh(key cache.Key, staleTime time.Duration) bool {
	e, ok := c.store.Get(key)
	if !ok || staleTime <= 0 {
		return false
	}
	return c.now().Sub(e.UpdatedAt) < staleTime
}

// Fetch returns the value of o, from the store when fresh. Concurrent
// fetches of one key share a single remote call; a caller whose context is
// cancelled stops waiting without cancelling the shared call.
func Fetch[T any](ctx context.Context, c *Client, o Options[T]) (T, error) {
	return fetch(ctx, c, o, false)
}

func fetch[T any](ctx context.Context, c *Client, o Options[T], force bool) (T, error) {
	var zero T
	if !force && c.Fresh(o.Key, o.StaleTime) {
		if v, ok := cache.Lookup[T](c.store, o.Key); ok {
			return v, nil
		}
	}

	ch := c.group.DoChan(o.Key.String(), func() (any, error) {
		start := c.now()
		v, err := o.Fetch(context.WithoutCancel(ctx))
		if err != nil {
			c.logger.Warn("Fetch failed", "key", o.Key.String(), "error", err)
			return nil, err
		}
		c.store.Set(o.Key, v)
		c.logger.Debug("Fetched", "key", o.Key.String(), "duration", c.now().Sub(start))
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, fmt.Errorf("fetch %s: %w", o.Key, res.Err)
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("fetch %s: unexpected type %T", o.Key, res.Val)
		}
		return v, nil
	}
}

// Prefetch loads every query concurrently and returns the first error.
func (c *Client) Prefetch(ctx context.Context, loaders ...Loader) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, l := range loaders {
		g.Go(func() error { return l.Load(ctx, c) })
	}
	return g.Wait()
}

// Invalidate drops keys so the next read refetches them.
func (c *Client) Invalidate(keys ...cache.Key) {
	for _, k := range keys {
		c.store.Delete(k)
		c.group.Forget(k.String())
	}
}

// Refresh refetches the given queries regardless of freshness. Stored
// values stay readable until their replacement arrives.
func (c *Client) Refresh(ctx context.Context, loaders ...Loader) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, l := range loaders {
		g.Go(func() error { return l.Refetch(ctx, c) })
	}
	return g.Wait()
}
