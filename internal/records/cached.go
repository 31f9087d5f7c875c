package records

import (
	"context"
	"log/slog"

	"catat/internal/cache"
	"catat/internal/core"
)

const categoriesKey = "category_options"

// CachedCategoryReader serves category options from a TTL cache and falls
// through to the store on a miss. Failed reads are not cached.
type CachedCategoryReader struct {
	inner CategoryReader
	cache cache.Cache[[]string]
}

var _ CategoryReader = (*CachedCategoryReader)(nil)

func NewCachedCategoryReader(inner CategoryReader, c cache.Cache[[]string]) *CachedCategoryReader {
	return &CachedCategoryReader{inner: inner, cache: c}
}

func (r *CachedCategoryReader) ListCategoryOptions(ctx context.Context) ([]string, error) {
	if opts, ok := r.cache.Get(categoriesKey); ok {
		slog.DebugContext(ctx, "Category options served from cache", "count", len(opts))
		return append([]string(nil), opts...), nil
	}
	opts, err := r.inner.ListCategoryOptions(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(categoriesKey, append([]string(nil), opts...))
	return opts, nil
}

// Invalidate drops the cached options.
func (r *CachedCategoryReader) Invalidate() {
	r.cache.Delete(categoriesKey)
}

// CachedStore decorates a Store with cached category options. A successful
// write invalidates the cache since stores may learn new options from it.
type CachedStore struct {
	Store
	categories *CachedCategoryReader
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(inner Store, c cache.Cache[[]string]) *CachedStore {
	return &CachedStore{Store: inner, categories: NewCachedCategoryReader(inner, c)}
}

func (s *CachedStore) ListCategoryOptions(ctx context.Context) ([]string, error) {
	return s.categories.ListCategoryOptions(ctx)
}

func (s *CachedStore) CreateRecord(ctx context.Context, e core.Expense) (string, error) {
	ref, err := s.Store.CreateRecord(ctx, e)
	if err == nil {
		s.categories.Invalidate()
	}
	return ref, err
}
