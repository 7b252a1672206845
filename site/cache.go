package site

import (
	"context"
	"fmt"

	"github.com/golang/groupcache"
	"github.com/google/uuid"
)

// initPageCache creates the groupcache group holding rendered pages, keyed by URL
// path. The post index never changes, so pages are cached until evicted.
// Group names must be unique per process, hence the random suffix.
func (s *Site) initPageCache(cacheBytes int64) {
	s.pages = groupcache.NewGroup("pages-"+uuid.NewString(), cacheBytes, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			b, err := s.render(key)
			if err != nil {
				return fmt.Errorf("pages group: %w", err)
			}
			return dest.SetBytes(b)
		}))
}

// cachedRender wraps render and provides caching.
func (s *Site) cachedRender(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pages.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data))
	if err != nil {
		return nil, fmt.Errorf("cachedRender: %w", err)
	}
	return data, nil
}
