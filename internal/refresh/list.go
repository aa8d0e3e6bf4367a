// Package refresh keeps an in-memory entity collection in step with the
// backend by refetching it wholesale after every successful mutation.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hairsby-console/internal/domain"
)

// FetchFunc loads the full collection from the backend.
type FetchFunc[E domain.Entity] func(ctx context.Context) ([]E, error)

// List is the only shared mutable state of a list view. It is replaced as a
// whole and never patched item by item.
type List[E domain.Entity] struct {
	kind  domain.Kind
	fetch FetchFunc[E]

	mu         sync.RWMutex
	items      []E
	generation uint64
	fetchedAt  time.Time
	loaded     bool

	// fetchMu serialises refetches so a slow response cannot overwrite a
	// newer one.
	fetchMu sync.Mutex
}

func NewList[E domain.Entity](kind domain.Kind, fetch FetchFunc[E]) *List[E] {
	return &List[E]{kind: kind, fetch: fetch}
}

func (l *List[E]) Kind() domain.Kind { return l.kind }

// Refresh refetches the collection and replaces it. On error the previous
// items are kept.
func (l *List[E]) Refresh(ctx context.Context) error {
	l.fetchMu.Lock()
	defer l.fetchMu.Unlock()

	items, err := l.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", l.kind, err)
	}

	l.mu.Lock()
	l.items = items
	l.generation++
	l.fetchedAt = time.Now()
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// EnsureLoaded fetches the collection if it has never been fetched.
func (l *List[E]) EnsureLoaded(ctx context.Context) error {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if loaded {
		return nil
	}
	return l.Refresh(ctx)
}

// Items returns a copy of the current collection.
func (l *List[E]) Items() []E {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]E, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[E]) Find(id string) (E, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero E
	return zero, false
}

// Generation counts successful refetches.
func (l *List[E]) Generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation
}

func (l *List[E]) FetchedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fetchedAt
}

// Clear drops the items, as on logout. The generation keeps counting.
func (l *List[E]) Clear() {
	l.mu.Lock()
	l.items = nil
	l.loaded = false
	l.fetchedAt = time.Time{}
	l.mu.Unlock()
}
