// ABOUTME: LRU memo of derived sequences keyed by catalog generation and query.
// ABOUTME: Lets page growth and toggling back to a previous query skip re-deriving.
package view

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/2389-research/mirrorview/internal/models"
)

const defaultMemoSize = 16

type memoKey struct {
	generation uint64
	query      Query
}

type memo struct {
	cache *lru.Cache[memoKey, []models.Post]
	// computed counts cache misses
	computed int
}

func newMemo(size int) *memo {
	if size <= 0 {
		size = defaultMemoSize
	}
	c, err := lru.New[memoKey, []models.Post](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &memo{cache: c}
}

func (m *memo) derive(generation uint64, catalog models.Catalog, q Query) []models.Post {
	key := memoKey{generation: generation, query: q}
	if posts, ok := m.cache.Get(key); ok {
		return posts
	}
	posts := Derive(catalog, q)
	m.computed++
	m.cache.Add(key, posts)
	return posts
}

func (m *memo) purge() {
	m.cache.Purge()
}
