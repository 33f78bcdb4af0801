// Package fetch retrieves pages for the crawl tasks while staying polite:
// bounded global and per-domain concurrency plus an adaptive per-domain
// delay derived from observed latency.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/engineed/engineed/app/scrape"
)

// Responses larger than this are truncated.
const maxBodySize = 10 << 20

type Options struct {
	UserAgent         string
	Timeout           time.Duration
	GlobalConcurrency int
	DomainConcurrency int
	TargetConcurrency float64 // target concurrent requests per domain
	StartDelay        time.Duration
	MaxDelay          time.Duration
}

type domainState struct {
	sem         chan struct{}
	mu          sync.Mutex
	delay       time.Duration
	nextRequest time.Time
}

type Fetcher struct {
	httpClient *http.Client
	opts       Options

	globalSem chan struct{}
	mu        sync.Mutex
	domains   map[string]*domainState
}

func NewFetcher(opts Options) *Fetcher {
	if opts.GlobalConcurrency <= 0 {
		opts.GlobalConcurrency = 16
	}
	if opts.DomainConcurrency <= 0 {
		opts.DomainConcurrency = 4
	}
	if opts.TargetConcurrency <= 0 {
		opts.TargetConcurrency = 2.0
	}
	if opts.StartDelay <= 0 {
		opts.StartDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		globalSem:  make(chan struct{}, opts.GlobalConcurrency),
		domains:    make(map[string]*domainState),
	}
}

// Fetch retrieves one page. It blocks until a global and a per-domain slot
// are free and the domain's current delay has elapsed. Non-2xx responses
// are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*scrape.Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	select {
	case f.globalSem <- struct{}{}:
		defer func() { <-f.globalSem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	state := f.stateFor(parsed.Host)

	select {
	case state.sem <- struct{}{}:
		defer func() { <-state.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := f.waitTurn(ctx, state); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		f.adjustDelay(state, latency, false)
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	f.adjustDelay(state, latency, ok)

	if !ok {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	return &scrape.Page{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

func (f *Fetcher) stateFor(host string) *domainState {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.domains[host]
	if !ok {
		state = &domainState{
			sem:   make(chan struct{}, f.opts.DomainConcurrency),
			delay: f.opts.StartDelay,
		}
		f.domains[host] = state
	}
	return state
}

// waitTurn sleeps until the domain's next allowed request time, claiming the
// slot after it for the caller.
func (f *Fetcher) waitTurn(ctx context.Context, state *domainState) error {
	state.mu.Lock()
	now := time.Now()
	wait := state.nextRequest.Sub(now)
	if wait < 0 {
		wait = 0
	}
	state.nextRequest = now.Add(wait + state.delay)
	state.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// adjustDelay moves the domain delay toward latency/target after a good
// response. Failed responses may only increase the delay, never shorten it.
func (f *Fetcher) adjustDelay(state *domainState, latency time.Duration, ok bool) {
	target := time.Duration(float64(latency) / f.opts.TargetConcurrency)

	state.mu.Lock()
	defer state.mu.Unlock()

	newDelay := (state.delay + target) / 2
	if !ok && newDelay < state.delay {
		return
	}
	if newDelay < f.opts.StartDelay {
		newDelay = f.opts.StartDelay
	}
	if newDelay > f.opts.MaxDelay {
		newDelay = f.opts.MaxDelay
	}
	state.delay = newDelay
}

// Delay reports the current adaptive delay for a host.
func (f *Fetcher) Delay(host string) time.Duration {
	return f.stateFor(host).delay
}
