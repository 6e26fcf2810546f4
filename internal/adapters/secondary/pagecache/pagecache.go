// Package pagecache caches fetched pages per page token for a stale time and
// collapses concurrent loads of the same token into one upstream request.
package pagecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// DefaultTTL matches how long a fetched page is considered fresh.
const DefaultTTL = 10 * time.Second

// Backend stores encoded pages.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// CachingFetcher decorates a PageFetcher with a page cache.
type CachingFetcher struct {
	next    ports.PageFetcher
	backend Backend
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger

	group singleflight.Group
	// epoch is bumped by Invalidate so loads started before it are not stored.
	epoch atomic.Uint64
}

var (
	_ ports.PageFetcher          = (*CachingFetcher)(nil)
	_ ports.PageCacheInvalidator = (*CachingFetcher)(nil)
)

// NewCachingFetcher creates a caching decorator around next.
func NewCachingFetcher(next ports.PageFetcher, backend Backend, prefix string, ttl time.Duration, logger *slog.Logger) *CachingFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingFetcher{
		next:    next,
		backend: backend,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger.With("component", "page_cache"),
	}
}

type cachedPage struct {
	Users  []domain.User `json:"users"`
	Number int           `json:"number"`
	Next   int           `json:"next"`
}

// FetchPage serves page from the cache when fresh, loading it otherwise.
func (f *CachingFetcher) FetchPage(ctx context.Context, page int) (*domain.Page, error) {
	key := f.key(page)

	raw, ok, err := f.backend.Get(ctx, key)
	if err != nil {
		f.logger.Warn("page cache read failed", "key", key, "error", err)
	} else if ok {
		if p, err := decode(raw); err == nil {
			f.logger.Debug("page cache hit", "page", page)
			return p, nil
		}
		f.logger.Warn("discarding undecodable cache entry", "key", key)
	}

	// The load is detached from the caller that started it. A cancelled
	// caller stops waiting; the others still get the page.
	ch := f.group.DoChan(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		epoch := f.epoch.Load()
		p, err := f.next.FetchPage(loadCtx, page)
		if err != nil {
			return nil, err
		}
		if epoch == f.epoch.Load() {
			f.store(loadCtx, key, p)
		}
		return p, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		f.logger.Debug("page load shared", "page", page)
	}
	return res.Val.(*domain.Page), nil
}

// Invalidate drops every cached page.
func (f *CachingFetcher) Invalidate(ctx context.Context) error {
	f.epoch.Add(1)
	if err := f.backend.DeletePrefix(ctx, f.prefix); err != nil {
		return fmt.Errorf("invalidating page cache: %w", err)
	}
	return nil
}

func (f *CachingFetcher) store(ctx context.Context, key string, p *domain.Page) {
	raw, err := json.Marshal(cachedPage{Users: p.Users, Number: p.Number, Next: p.Next.Page()})
	if err != nil {
		f.logger.Warn("failed to encode page", "key", key, "error", err)
		return
	}
	if err := f.backend.Set(ctx, key, raw, f.ttl); err != nil {
		f.logger.Warn("page cache write failed", "key", key, "error", err)
	}
}

func (f *CachingFetcher) key(page int) string {
	return f.prefix + strconv.Itoa(page)
}

func decode(raw []byte) (*domain.Page, error) {
	var c cachedPage
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &domain.Page{Users: c.Users, Number: c.Number, Next: domain.NewCursor(c.Next)}, nil
}
