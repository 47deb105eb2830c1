// Package dispatcher fans a query out to every registered shop in fixed
// size chunks, pausing between chunks so no shop sees bursts from us.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"card-hunter/pkg/models"
	"card-hunter/pkg/shops"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize = 3
	DefaultTimeout   = 15 * time.Second
)

type Options struct {
	// ChunkSize is the number of shops scraped concurrently.
	ChunkSize int
	// ChunkDelay is the pause between two chunks. There is no pause before
	// the first chunk or after the last, and zero disables it.
	ChunkDelay time.Duration
	// Timeout bounds each adapter call.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Progress is reported once per finished shop. Events are delivered one
// at a time, never concurrently.
type Progress struct {
	ShopID string
	Done   int
	Total  int
	// Listings is the running total across all finished shops.
	Listings int
	Err      error
}

type ProgressFunc func(Progress)

type ShopResult struct {
	ShopID   string
	Count    int
	Err      error
	Duration time.Duration
}

type Result struct {
	// Listings are grouped by shop in registry order.
	Listings []models.RawListing
	Shops    []ShopResult
}

// AllFailed reports whether every shop returned an error.
func (r Result) AllFailed() bool {
	if len(r.Shops) == 0 {
		return false
	}
	for _, s := range r.Shops {
		if s.Err == nil {
			return false
		}
	}
	return true
}

type Dispatcher struct {
	registry *shops.Registry
	opts     Options
	log      *zap.Logger

	// wait pauses between chunks. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

func New(registry *shops.Registry, opts Options) *Dispatcher {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkDelay < 0 {
		opts.ChunkDelay = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		registry: registry,
		opts:     opts,
		log:      log.Named("dispatcher"),
		wait:     sleep,
	}
}

// Run scrapes every shop for query. Adapter failures are contained in the
// per-shop results; the returned error is non-nil only when ctx ends
// before all chunks were started, in which case the partial result is
// still returned.
func (d *Dispatcher) Run(ctx context.Context, query string, progress ProgressFunc) (Result, error) {
	entries := d.registry.Entries()
	total := len(entries)
	size := d.opts.ChunkSize

	listings := make([][]models.RawListing, total)
	results := make([]ShopResult, total)
	for i, e := range entries {
		results[i].ShopID = e.Shop.ID
	}

	var (
		mu       sync.Mutex
		done     int
		received int
	)

	var runErr error
	for start := 0; start < total; start += size {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if start > 0 && d.opts.ChunkDelay > 0 {
			if err := d.wait(ctx, d.opts.ChunkDelay); err != nil {
				runErr = err
				break
			}
		}
		end := min(start+size, total)

		var g errgroup.Group
		g.SetLimit(size)
		for i := start; i < end; i++ {
			g.Go(func() error {
				began := time.Now()
				got, err := d.scrapeOne(ctx, entries[i], query)
				elapsed := time.Since(began)

				listings[i] = got
				results[i] = ShopResult{ShopID: entries[i].Shop.ID, Count: len(got), Err: err, Duration: elapsed}

				if err != nil {
					d.log.Warn("shop failed",
						zap.String("shop", entries[i].Shop.ID),
						zap.Duration("elapsed", elapsed),
						zap.Error(err))
				} else {
					d.log.Debug("shop done",
						zap.String("shop", entries[i].Shop.ID),
						zap.Int("listings", len(got)),
						zap.Duration("elapsed", elapsed))
				}

				mu.Lock()
				defer mu.Unlock()
				done++
				received += len(got)
				if progress != nil {
					progress(Progress{ShopID: entries[i].Shop.ID, Done: done, Total: total, Listings: received, Err: err})
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	var out []models.RawListing
	for _, l := range listings {
		out = append(out, l...)
	}
	return Result{Listings: out, Shops: results}, runErr
}

// scrapeOne runs a single adapter under its own deadline. Errors and
// panics are converted into an error result with no listings.
func (d *Dispatcher) scrapeOne(ctx context.Context, e shops.Entry, query string) (listings []models.RawListing, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			listings = nil
			err = fmt.Errorf("adapter %s panicked: %v", e.Shop.ID, r)
		}
	}()

	listings, err = e.Scraper.Scrape(ctx, e.Shop, query)
	if err != nil {
		var fe *models.FetchError
		var pe *models.ParseError
		if !errors.As(err, &fe) && !errors.As(err, &pe) && ctx.Err() != nil {
			err = &models.FetchError{ShopID: e.Shop.ID, URL: e.Shop.SearchURLFor(query), Err: err}
		}
		return nil, err
	}

	for i := range listings {
		if listings[i].ShopID == "" {
			listings[i].ShopID = e.Shop.ID
		}
	}
	return listings, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
