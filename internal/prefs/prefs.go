// ABOUTME: Persisted user preferences: view settings, favorites, and recently viewed posts.
// ABOUTME: Values are stored as JSON under fixed keys in a storage.Store.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/storage"
)

// MaxRecent caps the recently viewed list.
const MaxRecent = 10

const (
	keyFilter    = "prefs/filter"
	keySort      = "prefs/sort"
	keyFavorites = "prefs/favorites"
	keyRecent    = "prefs/recent"
)

// Prefs reads and writes preferences. Read-modify-write operations are
// serialized within the process.
type Prefs struct {
	store storage.Store
	mu    sync.Mutex
}

// New wraps store.
func New(store storage.Store) *Prefs {
	return &Prefs{store: store}
}

func (p *Prefs) load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := p.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (p *Prefs) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, key, raw)
}

// Filter returns the saved category filter, or "" when unset.
func (p *Prefs) Filter(ctx context.Context) (string, error) {
	var s string
	_, err := p.load(ctx, keyFilter, &s)
	return s, err
}

// SetFilter saves the category filter.
func (p *Prefs) SetFilter(ctx context.Context, filter string) error {
	return p.save(ctx, keyFilter, filter)
}

// Sort returns the saved sort key, or "" when unset.
func (p *Prefs) Sort(ctx context.Context) (string, error) {
	var s string
	_, err := p.load(ctx, keySort, &s)
	return s, err
}

// SetSort saves the sort key.
func (p *Prefs) SetSort(ctx context.Context, key string) error {
	return p.save(ctx, keySort, key)
}

// Favorites returns favorite post links in the order they were added.
func (p *Prefs) Favorites(ctx context.Context) ([]string, error) {
	var links []string
	if _, err := p.load(ctx, keyFavorites, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// IsFavorite reports whether link is a favorite.
func (p *Prefs) IsFavorite(ctx context.Context, link string) (bool, error) {
	links, err := p.Favorites(ctx)
	if err != nil {
		return false, err
	}
	for _, l := range links {
		if l == link {
			return true, nil
		}
	}
	return false, nil
}

// ToggleFavorite adds or removes link and reports whether it is now a favorite.
func (p *Prefs) ToggleFavorite(ctx context.Context, link string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	links, err := p.Favorites(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]string, 0, len(links)+1)
	removed := false
	for _, l := range links {
		if l == link {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		kept = append(kept, link)
	}
	if err := p.save(ctx, keyFavorites, kept); err != nil {
		return false, err
	}
	return !removed, nil
}

// FavoritePosts resolves saved links against catalog, in catalog order.
// Links no longer in the catalog are skipped.
func (p *Prefs) FavoritePosts(ctx context.Context, catalog models.Catalog) ([]models.Post, error) {
	links, err := p.Favorites(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(links))
	for _, l := range links {
		set[l] = true
	}
	var out []models.Post
	for _, post := range catalog {
		if set[post.Link] {
			out = append(out, post)
		}
	}
	return out, nil
}

// Recent returns recently viewed posts, newest first.
func (p *Prefs) Recent(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if _, err := p.load(ctx, keyRecent, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// AddRecent moves post to the front of the recent list, dropping older
// entries with the same link and anything past MaxRecent.
func (p *Prefs) AddRecent(ctx context.Context, post models.Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	posts, err := p.Recent(ctx)
	if err != nil {
		return err
	}
	updated := make([]models.Post, 0, MaxRecent)
	updated = append(updated, post)
	for _, existing := range posts {
		if len(updated) == MaxRecent {
			break
		}
		if existing.Link != post.Link {
			updated = append(updated, existing)
		}
	}
	return p.save(ctx, keyRecent, updated)
}

// ClearRecent empties the recent list.
func (p *Prefs) ClearRecent(ctx context.Context) error {
	return p.store.Delete(ctx, keyRecent)
}
