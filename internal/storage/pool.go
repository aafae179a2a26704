// internal/storage/pool.go
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Annany2002/nebula-forms/config"
)

// OpenFunc opens a backend for a profile. Pool uses Open unless told otherwise.
type OpenFunc func(ctx context.Context, p *config.Profile) (Backend, error)

type poolEntry struct {
	backend  Backend
	openedAt time.Time
}

// Pool memoizes one backend handle per (driver, host, path) for a fixed TTL.
// Expired handles are closed by a background prune loop.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
	ttl     time.Duration
	open    OpenFunc
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewPool starts a pool whose handles live for ttl.
func NewPool(ttl time.Duration) *Pool {
	return NewPoolWithOpener(ttl, func(ctx context.Context, p *config.Profile) (Backend, error) {
		return Open(ctx, p)
	})
}

// NewPoolWithOpener is NewPool with a custom opener.
func NewPoolWithOpener(ttl time.Duration, open OpenFunc) *Pool {
	pool := &Pool{
		entries: make(map[string]*poolEntry),
		ttl:     ttl,
		open:    open,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go pool.pruneLoop(pruneInterval(ttl))
	return pool
}

func pruneInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

func poolKey(p *config.Profile) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s|%s", p.Driver, p.Host, p.Port, p.Path, p.Database, p.User)
}

// Get returns the memoized backend for the profile, opening one when none is live.
func (pl *Pool) Get(ctx context.Context, p *config.Profile) (Backend, error) {
	key := poolKey(p)

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if entry, ok := pl.entries[key]; ok {
		if pl.now().Sub(entry.openedAt) < pl.ttl {
			return entry.backend, nil
		}
		pl.closeEntry(key, entry)
	}

	backend, err := pl.open(ctx, p)
	if err != nil {
		return nil, err
	}
	pl.entries[key] = &poolEntry{backend: backend, openedAt: pl.now()}
	customLog.Printf("Storage: Initialized backend handle for profile '%s'", p.Name)
	return backend, nil
}

// Len reports the number of live handles.
func (pl *Pool) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.entries)
}

// Prune closes every handle older than the TTL.
func (pl *Pool) Prune() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	now := pl.now()
	for key, entry := range pl.entries {
		if now.Sub(entry.openedAt) >= pl.ttl {
			pl.closeEntry(key, entry)
		}
	}
}

// closeEntry must be called with mu held.
func (pl *Pool) closeEntry(key string, entry *poolEntry) {
	if err := entry.backend.Close(); err != nil {
		customLog.Warnf("Storage: Error closing expired handle %s: %v", key, err)
	}
	delete(pl.entries, key)
	customLog.Printf("Storage: Pruned backend handle %s", key)
}

func (pl *Pool) pruneLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pl.Prune()
		case <-pl.stop:
			return
		}
	}
}

// Close stops pruning and closes every handle.
func (pl *Pool) Close() {
	pl.once.Do(func() {
		close(pl.stop)
		pl.mu.Lock()
		defer pl.mu.Unlock()
		for key, entry := range pl.entries {
			pl.closeEntry(key, entry)
		}
	})
}
