package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimitRepository keeps fixed-window request counters in process.
type MemoryRateLimitRepository struct {
	mu      sync.Mutex
	windows map[string]*rateLimitEntry
	now     func() time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryRateLimitRepository() *MemoryRateLimitRepository {
	return &MemoryRateLimitRepository{
		windows: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

func (r *MemoryRateLimitRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.windows[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.windows[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Prune drops expired windows.
func (r *MemoryRateLimitRepository) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, entry := range r.windows {
		if now.After(entry.expiresAt) {
			delete(r.windows, key)
		}
	}
}

// RunPruner prunes expired windows every interval until ctx is done.
func (r *MemoryRateLimitRepository) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}
