// ABOUTME: Stateful view over a catalog with debounced search and incremental paging.
// ABOUTME: Recomputes the visible slice on every input change and notifies subscribers.
package view

import (
	"sync"
	"time"

	"github.com/2389-research/mirrorview/internal/models"
)

const (
	DefaultSearchDelay      = 300 * time.Millisecond
	DefaultLoadMoreCooldown = 200 * time.Millisecond
)

// Snapshot is the derived view at one point in time.
type Snapshot struct {
	Visible   []models.Post
	HasMore   bool
	Shown     int
	Total     int // posts after filter and search
	Remaining int
	Page      int

	Query         Query  // applied inputs
	PendingSearch string // raw search text not yet applied
	Loading       bool
}

// Pipeline owns the view state. Methods are safe for concurrent use;
// subscribers are called outside the internal lock, in change order per caller.
type Pipeline struct {
	pageSize int
	memo     *memo
	search   *Debouncer
	growth   *Debouncer

	mu         sync.Mutex
	catalog    models.Catalog
	generation uint64
	query      Query
	page       int
	pending    string
	loading    bool
	snap       Snapshot
	subs       map[int]func(Snapshot)
	nextSub    int
}

type pipelineConfig struct {
	pageSize    int
	searchDelay time.Duration
	cooldown    time.Duration
	after       AfterFunc
	memoSize    int
	query       Query
}

// Option configures a Pipeline.
type Option func(*pipelineConfig)

// WithPageSize sets posts per page.
func WithPageSize(n int) Option {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithSearchDelay sets the search debounce window.
func WithSearchDelay(d time.Duration) Option {
	return func(c *pipelineConfig) { c.searchDelay = d }
}

// WithLoadMoreCooldown sets the debounce window for NearEnd.
func WithLoadMoreCooldown(d time.Duration) Option {
	return func(c *pipelineConfig) { c.cooldown = d }
}

// WithAfterFunc injects the timer source used by both debouncers.
func WithAfterFunc(after AfterFunc) Option {
	return func(c *pipelineConfig) { c.after = after }
}

// WithMemoSize sets how many derived sequences are remembered.
func WithMemoSize(n int) Option {
	return func(c *pipelineConfig) { c.memoSize = n }
}

// WithInitialQuery sets the starting filter and sort, e.g. restored preferences.
func WithInitialQuery(filter, sortKey string) Option {
	return func(c *pipelineConfig) {
		if filter != "" {
			c.query.Filter = filter
		}
		if sortKey != "" {
			c.query.Sort = sortKey
		}
	}
}

// NewPipeline creates an empty pipeline on page 1.
func NewPipeline(opts ...Option) *Pipeline {
	cfg := pipelineConfig{
		pageSize:    DefaultPageSize,
		searchDelay: DefaultSearchDelay,
		cooldown:    DefaultLoadMoreCooldown,
		query:       Query{Filter: FilterAll, Sort: SortNameAsc},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pipeline{
		pageSize: cfg.pageSize,
		memo:     newMemo(cfg.memoSize),
		search:   NewDebouncer(cfg.searchDelay, cfg.after),
		growth:   NewDebouncer(cfg.cooldown, cfg.after),
		query:    cfg.query,
		page:     1,
		subs:     make(map[int]func(Snapshot)),
	}
	p.recompute()
	return p
}

// SetCatalog replaces the catalog. The page count is kept.
func (p *Pipeline) SetCatalog(c models.Catalog) {
	p.update(func() bool {
		p.catalog = c
		p.generation++
		p.memo.purge()
		return true
	})
}

// SetFilter changes the category filter and resets to page 1.
func (p *Pipeline) SetFilter(filter string) {
	p.update(func() bool {
		if p.query.Filter == filter {
			return false
		}
		p.query.Filter = filter
		p.page = 1
		return true
	})
}

// SetSort changes the sort key and resets to page 1.
func (p *Pipeline) SetSort(key string) {
	p.update(func() bool {
		if p.query.Sort == key {
			return false
		}
		p.query.Sort = key
		p.page = 1
		return true
	})
}

// SetSearch records raw search text. It is applied once input has been
// quiet for the search delay; intermediate values never recompute.
func (p *Pipeline) SetSearch(text string) {
	p.mu.Lock()
	p.pending = text
	p.snap.PendingSearch = text
	p.mu.Unlock()

	p.search.Trigger(func() { p.applySearch(text) })
}

// FlushSearch applies pending search text immediately.
func (p *Pipeline) FlushSearch() {
	p.search.Flush()
}

func (p *Pipeline) applySearch(text string) {
	p.update(func() bool {
		if p.query.Search == text {
			return false
		}
		p.query.Search = text
		p.page = 1
		return true
	})
}

// LoadMore grows the visible slice by one page. It does nothing and returns
// false while loading or when nothing remains.
func (p *Pipeline) LoadMore() bool {
	grew := false
	p.update(func() bool {
		if p.loading || !p.snap.HasMore {
			return false
		}
		p.page++
		grew = true
		return true
	})
	return grew
}

// NearEnd signals that the end of the visible slice is close. Bursts of
// signals collapse into one LoadMore after the cooldown.
func (p *Pipeline) NearEnd() {
	p.mu.Lock()
	suppressed := p.loading || !p.snap.HasMore
	p.mu.Unlock()
	if suppressed {
		return
	}
	p.growth.Trigger(func() { p.LoadMore() })
}

// SetLoading marks a catalog fetch as in flight.
func (p *Pipeline) SetLoading(loading bool) {
	p.mu.Lock()
	if p.loading == loading {
		p.mu.Unlock()
		return
	}
	p.loading = loading
	p.snap.Loading = loading
	snap, subs := p.snap, p.subscribers()
	p.mu.Unlock()

	if loading {
		p.growth.Cancel()
	}
	notify(subs, snap)
}

// Snapshot returns the current view.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe registers fn for every recomputed snapshot and returns a
// function that removes it.
func (p *Pipeline) Subscribe(fn func(Snapshot)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Close drops pending debounced work.
func (p *Pipeline) Close() {
	p.search.Cancel()
	p.growth.Cancel()
}

// update applies change under the lock and, if it reports a change,
// recomputes and notifies.
func (p *Pipeline) update(change func() bool) {
	p.mu.Lock()
	if !change() {
		p.mu.Unlock()
		return
	}
	p.recompute()
	snap, subs := p.snap, p.subscribers()
	p.mu.Unlock()

	notify(subs, snap)
}

// recompute rebuilds the snapshot. Caller holds mu.
func (p *Pipeline) recompute() {
	derived := p.memo.derive(p.generation, p.catalog, p.query)
	visible, hasMore := Paginate(derived, p.page, p.pageSize)
	p.snap = Snapshot{
		Visible:       visible,
		HasMore:       hasMore,
		Shown:         len(visible),
		Total:         len(derived),
		Remaining:     len(derived) - len(visible),
		Page:          p.page,
		Query:         p.query,
		PendingSearch: p.pending,
		Loading:       p.loading,
	}
}

// Caller holds mu.
func (p *Pipeline) subscribers() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
