// ABOUTME: Concurrent mirror reachability probes with per-probe deadlines.
// ABOUTME: Results are kept in memory for the session and never returned as errors.
package mirror

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/2389-research/mirrorview/internal/metrics"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 5 * time.Second

// Batch is the outcome of one ProbeAll call.
type Batch struct {
	ID       string
	Results  map[string]models.ProbeResult // only the URLs in this batch
	Duration time.Duration
}

// Online returns how many mirrors in the batch responded.
func (b Batch) Online() int {
	n := 0
	for _, r := range b.Results {
		if r.Online {
			n++
		}
	}
	return n
}

// Prober checks mirrors and remembers the latest result per URL.
type Prober struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	onResult   func(models.ProbeResult)

	mu       sync.RWMutex
	results  map[string]models.ProbeResult
	inFlight int
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProbeTimeout sets the per-probe deadline.
func WithProbeTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithProbeHTTPClient replaces the HTTP client used for probes.
func WithProbeHTTPClient(hc *http.Client) ProberOption {
	return func(p *Prober) { p.httpClient = hc }
}

// WithProberLogger sets the logger.
func WithProberLogger(l *slog.Logger) ProberOption {
	return func(p *Prober) { p.logger = l }
}

// WithProberMetrics records probe outcomes.
func WithProberMetrics(m *metrics.Metrics) ProberOption {
	return func(p *Prober) { p.metrics = m }
}

// WithResultHook is called once per completed probe, from the probing goroutine.
func WithResultHook(fn func(models.ProbeResult)) ProberOption {
	return func(p *Prober) { p.onResult = fn }
}

// NewProber creates a prober with an empty result set.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		httpClient: &http.Client{
			// a redirect still proves the mirror answers
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		timeout: DefaultProbeTimeout,
		logger:  slog.Default(),
		results: make(map[string]models.ProbeResult),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe issues a HEAD request against url and classifies the outcome. Any
// HTTP response counts as reachable; transport errors and timeouts are
// offline. The result is recorded before it is returned.
func (p *Prober) Probe(ctx context.Context, url string) models.ProbeResult {
	result := p.check(ctx, url)
	p.record(result)
	return result
}

func (p *Prober) check(ctx context.Context, url string) models.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	offline := models.ProbeResult{URL: url, Online: false, Status: models.StatusOffline}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		p.logger.Debug("probe request invalid", "mirror_url", url, "err", err)
		return offline
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	// whole milliseconds, so ranking ties and status thresholds agree with the reported value
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		p.logger.Debug("mirror offline", "mirror_url", url, "err", err)
		return offline
	}
	_ = resp.Body.Close()

	return models.ProbeResult{
		URL:     url,
		Online:  true,
		Latency: elapsed,
		Status:  models.ClassifyLatency(elapsed),
	}
}

func (p *Prober) record(r models.ProbeResult) {
	p.mu.Lock()
	p.results[r.URL] = r
	p.mu.Unlock()

	ms, _ := r.LatencyMs()
	p.metrics.ObserveProbe(string(r.Status), float64(ms)/1000, r.Online)
	if p.onResult != nil {
		p.onResult(r)
	}
}

// ProbeAll probes every URL concurrently, each under its own deadline, and
// waits for all of them. Results are merged as they complete; a later probe
// of the same URL overwrites an earlier one.
func (p *Prober) ProbeAll(ctx context.Context, urls []string) Batch {
	batch := Batch{ID: uuid.NewString(), Results: make(map[string]models.ProbeResult, len(urls))}
	if len(urls) == 0 {
		return batch
	}

	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	p.metrics.BatchStarted()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
		p.metrics.BatchDone()
	}()

	start := time.Now()
	var mu sync.Mutex
	var g errgroup.Group
	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		if seen[url] {
			continue
		}
		seen[url] = true
		g.Go(func() error {
			r := p.Probe(ctx, url)
			mu.Lock()
			batch.Results[url] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	batch.Duration = time.Since(start)

	p.logger.Info("mirror batch complete",
		"batch_id", batch.ID, "mirrors", len(batch.Results), "online", batch.Online(),
		"duration_ms", batch.Duration.Milliseconds())
	return batch
}

// Testing reports whether any ProbeAll batch is still running.
func (p *Prober) Testing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inFlight > 0
}

// Results returns a copy of every recorded result.
func (p *Prober) Results() map[string]models.ProbeResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]models.ProbeResult, len(p.results))
	for k, v := range p.results {
		out[k] = v
	}
	return out
}

// Result returns the recorded result for url.
func (p *Prober) Result(url string) (models.ProbeResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.results[url]
	return r, ok
}

// Reset forgets all recorded results.
func (p *Prober) Reset() {
	p.mu.Lock()
	p.results = make(map[string]models.ProbeResult)
	p.mu.Unlock()
}
