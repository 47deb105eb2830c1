package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-hunter/pkg/api"
	"card-hunter/pkg/cache"
	"card-hunter/pkg/config"
	"card-hunter/pkg/dispatcher"
	"card-hunter/pkg/logger"
	"card-hunter/pkg/models"
	"card-hunter/pkg/scrapers"
	"card-hunter/pkg/search"
	"card-hunter/pkg/shops"

	"go.uber.org/zap"
)

func main() {
	query := flag.String("q", "", "search once for this card name, print JSON and exit")
	sortFlag := flag.String("sort", "price", "price order within a card: price or shop")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *query, *sortFlag); err != nil {
		log.Error("exiting", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, query, sortFlag string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := scrapers.NewTransport(scrapers.TransportConfig{
		RetryMax: cfg.HTTPRetryMax,
		HostRate: cfg.HostRatePerSec,
	})
	all, err := shops.NewDefault(scrapers.Options{Transport: transport, Logger: log})
	if err != nil {
		return err
	}
	registry, err := all.Filter(cfg.EnabledShops)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	opts := search.Options{
		Dispatcher: dispatcher.Options{
			ChunkSize:  cfg.ChunkSize,
			ChunkDelay: cfg.ChunkDelay,
			Timeout:    cfg.ShopTimeout,
		},
		Cache: cache.Options{
			TTL:     cfg.CacheTTL,
			Workers: cfg.RefreshWorkers,
			Store:   store,
		},
		Logger: log,
	}
	cli := query != ""
	if cli {
		opts.Progress = progressPrinter(os.Stderr)
	}
	svc := search.New(registry, opts)
	defer svc.Close()

	log.Info("cache initialized",
		zap.String("backend", cfg.CacheBackend),
		zap.Duration("ttl", cfg.CacheTTL),
		zap.Int("shops", registry.Len()))

	if cli {
		return searchOnce(ctx, svc, query, sortFlag, os.Stdout)
	}
	return serve(ctx, cfg, log, svc)
}

func openStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		s, err := cache.NewSQLiteStore(cfg.CacheDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot db: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		s, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisRetention)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, nil
	default:
		return nil, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, svc api.Searcher) error {
	port := cfg.Port

	ip := GetOutboundIP()
	if ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), port)
	} else {
		fmt.Println("Could not determine local IP address.")
	}
	fmt.Printf("Access URL: http://localhost:%s\n", port)
	fmt.Printf("API Docs: http://localhost:%s/\n", port)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewServer(svc, log, cfg.SpecDir).Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// searchOnce runs a single search and writes the cards as indented JSON.
func searchOnce(ctx context.Context, svc api.Searcher, query, sortFlag string, out io.Writer) error {
	order, err := models.ParseSortOrder(sortFlag)
	if err != nil {
		return err
	}
	cards, err := svc.Search(ctx, query, order)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(cards)
}

func progressPrinter(w io.Writer) func(string, dispatcher.Progress) {
	return func(query string, p dispatcher.Progress) {
		status := "ok"
		if p.Err != nil {
			status = "failed: " + p.Err.Error()
		}
		fmt.Fprintf(w, "[%d/%d] %s %s (%d listings so far)\n", p.Done, p.Total, p.ShopID, status, p.Listings)
	}
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}
