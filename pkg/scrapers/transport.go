package scrapers

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRetryMax     = 1
	defaultRetryBackoff = 500 * time.Millisecond
	defaultHostRate     = 2
)

// TransportConfig tunes the shared scraping transport.
type TransportConfig struct {
	// RetryMax is the number of retries after the first attempt.
	RetryMax int
	// HostRate is the per-host request rate in requests per second.
	// Zero or less disables throttling.
	HostRate float64
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
}

// DefaultTransportConfig is one retry and two requests per second per host.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		RetryMax:     defaultRetryMax,
		HostRate:     defaultHostRate,
		RetryBackoff: defaultRetryBackoff,
	}
}

// Transport is the http.RoundTripper every static adapter fetches through.
// It throttles per host, retries idempotent requests a bounded number of
// times and supplies browser user agents.
type Transport struct {
	Base http.RoundTripper

	cfg TransportConfig
	ua  *uaPool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewTransport(cfg TransportConfig) *Transport {
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &Transport{
		Base: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			MaxIdleConnsPerHost:   4,
		},
		cfg:      cfg,
		ua:       globalUA,
		limiters: make(map[string]*rate.Limiter),
	}
}

// UserAgent returns a random browser user agent from the pool.
func (t *Transport) UserAgent() string {
	return t.ua.random()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.cfg.RetryMax
	if !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(req, t.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
				return nil, lastErr
			}
		}
		if lim := t.limiter(req.URL.Host); lim != nil {
			if err := lim.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", t.ua.random())
		}
		if r.Header.Get("Accept-Language") == "" {
			r.Header.Set("Accept-Language", "ja,en;q=0.8")
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if err == nil {
			if attempt == max {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = errors.New(resp.Status)
			continue
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (t *Transport) limiter(host string) *rate.Limiter {
	if t.cfg.HostRate <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(t.cfg.HostRate), 1)
		t.limiters[host] = lim
	}
	return lim
}

func retryableStatus(code int) bool {
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func sleepCtx(req *http.Request, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Mobile/15E148 Safari/604.1",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
