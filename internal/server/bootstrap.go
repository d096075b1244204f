package server

import (
	"fmt"

	"github.com/any-hub/site-router/internal/config"
	"github.com/any-hub/site-router/internal/edgecache"
)

// OpenEdgeCache 根据全局配置选择边缘缓存后端，调用方负责 Close。
func OpenEdgeCache(g config.GlobalConfig) (edgecache.Cache, error) {
	switch g.CacheBackend {
	case config.CacheBackendLevelDB:
		cache, err := edgecache.OpenLevelDB(g.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open leveldb cache %s: %w", g.CachePath, err)
		}
		return cache, nil
	case config.CacheBackendMemory, "":
		return edgecache.NewMemory(g.CacheMaxEntries), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", g.CacheBackend)
	}
}
