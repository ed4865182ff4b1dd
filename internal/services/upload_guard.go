package services

import (
	"context"
	"sync"
	"time"

	"eventx/internal/domain"
)

// memoryUploadGuard is the single-instance UploadGuard used when no redis is
// configured. Markers expire lazily on the next Acquire of the same key and
// in a periodic purge.
type memoryUploadGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryUploadGuard returns an in-process UploadGuard and starts its purge
// loop, which stops with ctx.
func NewMemoryUploadGuard(ctx context.Context, ttl time.Duration) domain.UploadGuard {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	g := &memoryUploadGuard{entries: make(map[string]time.Time), ttl: ttl, now: time.Now}
	go g.purgeLoop(ctx)
	return g
}

func (g *memoryUploadGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if exp, ok := g.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	g.entries[key] = now.Add(g.ttl)
	return true, nil
}

func (g *memoryUploadGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
	return nil
}

func (g *memoryUploadGuard) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(g.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.purge()
		}
	}
}

func (g *memoryUploadGuard) purge() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, exp := range g.entries {
		if !now.Before(exp) {
			delete(g.entries, k)
		}
	}
}
