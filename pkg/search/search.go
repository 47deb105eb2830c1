// Package search is the query entry point: cache first, and on a miss or
// expiry the dispatcher and aggregator.
package search

import (
	"context"
	"errors"
	"fmt"

	"card-hunter/pkg/aggregator"
	"card-hunter/pkg/cache"
	"card-hunter/pkg/dispatcher"
	"card-hunter/pkg/identity"
	"card-hunter/pkg/logger"
	"card-hunter/pkg/models"
	"card-hunter/pkg/shops"

	"go.uber.org/zap"
)

type Options struct {
	Dispatcher dispatcher.Options
	Cache      cache.Options
	Logger     *zap.Logger
	// Progress is called after each shop of every load, including
	// background refreshes.
	Progress func(query string, p dispatcher.Progress)
}

type Service struct {
	registry   *shops.Registry
	dispatcher *dispatcher.Dispatcher
	aggregator *aggregator.Aggregator
	cache      *cache.Cache
	progress   func(string, dispatcher.Progress)
	log        *zap.Logger
	hits       *logger.Deduper
}

func New(registry *shops.Registry, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Dispatcher.Logger == nil {
		opts.Dispatcher.Logger = log
	}
	if opts.Cache.Logger == nil {
		opts.Cache.Logger = log
	}

	s := &Service{
		registry:   registry,
		dispatcher: dispatcher.New(registry, opts.Dispatcher),
		aggregator: aggregator.New(registry.Shops(), log),
		progress:   opts.Progress,
		log:        log.Named("search"),
	}
	s.hits = logger.NewDeduper(s.log)
	s.cache = cache.New(s.load, opts.Cache)
	return s
}

// NormalizeQuery folds width variants, trims and collapses whitespace so
// equivalent queries share a cache entry.
func NormalizeQuery(q string) string {
	return identity.Normalize(q)
}

// Search returns the cards matching query with prices in the given order.
// The only errors are an empty query and the caller's context ending;
// shop failures yield an empty result.
func (s *Service) Search(ctx context.Context, query string, order models.SortOrder) ([]models.CardInfo, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return nil, models.ErrEmptyQuery
	}
	if order == "" {
		order = models.SortByPrice
	}

	data, state, err := s.cache.Get(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		s.log.Warn("search failed, returning no results", zap.String("query", q), zap.Error(err))
		return []models.CardInfo{}, nil
	}
	if state != cache.Empty {
		s.hits.Infof("cache %s for %q", state, q)
	}
	return arrange(data, order), nil
}

func (s *Service) load(ctx context.Context, query string) ([]models.CardInfo, error) {
	var progress dispatcher.ProgressFunc
	if s.progress != nil {
		progress = func(p dispatcher.Progress) { s.progress(query, p) }
	}

	res, err := s.dispatcher.Run(ctx, query, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAggregationFailure, err)
	}
	if res.AllFailed() {
		return nil, fmt.Errorf("%w: every shop failed", models.ErrAggregationFailure)
	}

	cards, err := s.aggregate(res.Listings)
	if err != nil {
		return nil, err
	}
	s.log.Info("search loaded",
		zap.String("query", query),
		zap.Int("listings", len(res.Listings)),
		zap.Int("cards", len(cards)))
	return cards, nil
}

func (s *Service) aggregate(listings []models.RawListing) (cards []models.CardInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			cards = nil
			err = fmt.Errorf("%w: %v", models.ErrAggregationFailure, r)
		}
	}()
	return s.aggregator.Aggregate(listings, models.SortByPrice), nil
}

// arrange copies cached data so callers can reorder it freely.
func arrange(data []models.CardInfo, order models.SortOrder) []models.CardInfo {
	out := make([]models.CardInfo, len(data))
	for i, c := range data {
		c.Prices = append([]models.CardPrice(nil), c.Prices...)
		out[i] = c
	}
	if order != models.SortByPrice {
		aggregator.Sort(out, order)
	}
	return out
}

func (s *Service) Shops() []models.Shop {
	return s.registry.Shops()
}

func (s *Service) Shop(id string) (models.Shop, bool) {
	e, ok := s.registry.Get(id)
	return e.Shop, ok
}

// Close stops background refreshes and flushes pending log lines.
func (s *Service) Close() error {
	err := s.cache.Close()
	s.hits.Flush()
	return err
}
