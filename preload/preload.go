// Package preload fetches every asset a page needs and reports when all attempts have settled
package preload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 15 * time.Second

// Report is the outcome of one preload run. A failed asset still counts as settled.
type Report struct {
	Total     int       `json:"total"`
	Loaded    int       `json:"loaded"`
	Failed    []string  `json:"failed"`
	Progress  int       `json:"progress"`
	StartedAt time.Time `json:"startedAt"`
	Duration  float64   `json:"durationSeconds"`
}

// Preloader fans out one fetch per URL and joins once every fetch has settled.
type Preloader struct {
	client      *http.Client
	base        *url.URL
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

type Option func(*Preloader)

// WithBaseURL resolves relative asset URLs against base.
func WithBaseURL(base *url.URL) Option {
	return func(p *Preloader) { p.base = base }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Preloader) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithConcurrency caps the fetches in flight. By default every URL is fetched at once.
func WithConcurrency(n int) Option {
	return func(p *Preloader) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Preloader) { p.client = c }
}

func NewPreloader(logger *zap.Logger, opts ...Option) *Preloader {
	p := &Preloader{
		client:  &http.Client{},
		timeout: defaultTimeout,
		logger:  logger.Named("preload"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preload fetches every URL concurrently. onProgress, when set, is called after each
// settle with settled/total*100; 100 is reported exactly once, after the last settle.
// With no URLs it reports 100 immediately.
func (p *Preloader) Preload(ctx context.Context, urls []string, onProgress func(percent int)) Report {
	report := Report{Total: len(urls), StartedAt: time.Now(), Failed: []string{}}
	if onProgress == nil {
		onProgress = func(int) {}
	}

	if len(urls) == 0 {
		report.Progress = 100
		onProgress(100)
		return report
	}

	var (
		mu      sync.Mutex
		settled int
	)
	settle := func(u string, err error) {
		mu.Lock()
		defer mu.Unlock()

		settled++
		if err != nil {
			report.Failed = append(report.Failed, u)
			p.logger.Warn("asset failed to load", zap.String("url", u), zap.Error(err))
		} else {
			report.Loaded++
		}
		report.Progress = settled * 100 / len(urls)
		onProgress(report.Progress)
	}

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for _, u := range urls {
		g.Go(func() error {
			settle(u, p.fetch(ctx, u))
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt).Seconds()
	p.logger.Info("preload settled",
		zap.Int("total", report.Total),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}

func (p *Preloader) fetch(ctx context.Context, raw string) error {
	target, err := p.resolve(raw)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *Preloader) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid asset url: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if p.base == nil {
		return "", fmt.Errorf("relative asset url %q with no base", raw)
	}
	return p.base.ResolveReference(u).String(), nil
}
