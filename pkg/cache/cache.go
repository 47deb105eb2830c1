// Package cache keeps aggregated search results per query and serves them
// stale-while-revalidate: an expired entry is returned immediately while a
// single background refresh replaces it.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"card-hunter/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL       = time.Hour
	DefaultWorkers   = 4
	DefaultQueueSize = 64

	storeTimeout = 5 * time.Second
)

// Loader produces fresh data for a query. Returning an error leaves the
// cache untouched.
type Loader func(ctx context.Context, query string) ([]models.CardInfo, error)

type State int

const (
	Empty State = iota
	Fresh
	Stale
	Refreshing
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Refreshing:
		return "refreshing"
	default:
		return "empty"
	}
}

// Entry is an immutable snapshot. Updates replace the whole entry.
type Entry struct {
	Query      string            `json:"query"`
	Data       []models.CardInfo `json:"data"`
	WrittenAt  time.Time         `json:"written_at"`
	Refreshing bool              `json:"-"`

	expired bool
}

type Options struct {
	TTL time.Duration
	// Workers is the number of background refresh workers.
	Workers int
	// QueueSize bounds pending refreshes. A stale hit that finds the queue
	// full is served without scheduling a refresh.
	QueueSize int
	// Store, when set, persists the latest snapshot per query.
	Store  Store
	Logger *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Cache struct {
	load  Loader
	ttl   time.Duration
	now   func() time.Time
	store Store
	log   *zap.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]Entry
	done    map[string]chan struct{}
	closed  bool

	jobs     chan string
	workers  sync.WaitGroup
	inflight sync.WaitGroup
}

func New(load Loader, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Cache{
		load:    load,
		ttl:     opts.TTL,
		now:     opts.Clock,
		store:   opts.Store,
		log:     log.Named("cache"),
		entries: make(map[string]Entry),
		done:    make(map[string]chan struct{}),
		jobs:    make(chan string, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		c.workers.Add(1)
		go c.worker()
	}
	return c
}

// Get returns the data for query and the state the entry was found in.
//
// On a miss the load runs on a context detached from ctx: if the caller
// gives up, Get returns ctx.Err() but the load still completes and is
// cached. Concurrent misses for one query share a single load.
func (c *Cache) Get(ctx context.Context, query string) ([]models.CardInfo, State, error) {
	if data, state, ok := c.lookup(query); ok {
		return data, state, nil
	}
	if c.warm(ctx, query) {
		if data, state, ok := c.lookup(query); ok {
			return data, state, nil
		}
	}

	ch := c.group.DoChan(query, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), query)
	})
	select {
	case <-ctx.Done():
		return nil, Empty, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, Empty, r.Err
		}
		return r.Val.([]models.CardInfo), Empty, nil
	}
}

// lookup serves a cached entry and schedules a refresh when it is stale.
func (c *Cache) lookup(query string) ([]models.CardInfo, State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[query]
	if !ok {
		return nil, Empty, false
	}
	if !e.expired && c.now().Sub(e.WrittenAt) < c.ttl {
		return e.Data, Fresh, true
	}
	if e.Refreshing {
		return e.Data, Refreshing, true
	}
	if c.closed {
		return e.Data, Stale, true
	}

	select {
	case c.jobs <- query:
		e.Refreshing = true
		c.entries[query] = e
		c.done[query] = make(chan struct{})
		c.inflight.Add(1)
	default:
		c.log.Warn("refresh queue full", zap.String("query", query))
	}
	return e.Data, Stale, true
}

// warm copies a persisted snapshot into memory when nothing is cached yet.
func (c *Cache) warm(ctx context.Context, query string) bool {
	if c.store == nil {
		return false
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	e, ok, err := c.store.Load(sctx, query)
	if err != nil {
		c.log.Warn("snapshot load failed", zap.String("query", query), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[query]; !exists {
		c.entries[query] = Entry{Query: query, Data: e.Data, WrittenAt: e.WrittenAt}
	}
	return true
}

// fill loads and stores query. It runs inside the singleflight group.
func (c *Cache) fill(ctx context.Context, query string) ([]models.CardInfo, error) {
	data, err := c.load(ctx, query)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []models.CardInfo{}
	}
	c.put(query, data)
	return data, nil
}

func (c *Cache) put(query string, data []models.CardInfo) {
	c.mu.Lock()
	written := c.now()
	if prev, ok := c.entries[query]; ok && written.Before(prev.WrittenAt) {
		written = prev.WrittenAt
	}
	e := Entry{Query: query, Data: data, WrittenAt: written}
	c.entries[query] = e
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.Save(ctx, e); err != nil {
		c.log.Warn("snapshot save failed", zap.String("query", query), zap.Error(err))
	}
}

func (c *Cache) worker() {
	defer c.workers.Done()
	for query := range c.jobs {
		c.refresh(query)
	}
}

func (c *Cache) refresh(query string) {
	defer c.inflight.Done()

	_, err, _ := c.group.Do(query, func() (any, error) {
		return c.fill(context.Background(), query)
	})

	c.mu.Lock()
	if err != nil {
		if e, ok := c.entries[query]; ok && e.Refreshing {
			e.Refreshing = false
			c.entries[query] = e
		}
	}
	if ch, ok := c.done[query]; ok {
		close(ch)
		delete(c.done, query)
	}
	c.mu.Unlock()

	if err != nil {
		lvl := zap.WarnLevel
		if errors.Is(err, models.ErrAggregationFailure) {
			lvl = zap.InfoLevel
		}
		c.log.Log(lvl, "refresh failed, keeping stale data", zap.String("query", query), zap.Error(err))
		return
	}
	c.log.Debug("refreshed", zap.String("query", query))
}

// Done returns a channel closed when the refresh running for query ends.
// If no refresh is running the channel is already closed.
func (c *Cache) Done(query string) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.done[query]; ok {
		return ch
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Wait blocks until every scheduled refresh has finished.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

// Peek returns the cached entry without side effects.
func (c *Cache) Peek(query string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[query]
	return e, ok
}

// Expire makes the entry for query stale regardless of its age.
func (c *Cache) Expire(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[query]; ok {
		e.expired = true
		c.entries[query] = e
	}
}

func (c *Cache) Invalidate(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, query)
}

// Clear drops every in-memory entry. Persisted snapshots are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the refresh workers after the queued refreshes finish.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.jobs)
	c.mu.Unlock()

	c.workers.Wait()
	return nil
}
