package server

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/any-hub/site-router/internal/config"
	"github.com/any-hub/site-router/internal/edgecache"
)

func TestOpenEdgeCacheSelectsBackend(t *testing.T) {
	u, _ := url.Parse("http://docs.local/index.html")
	key := edgecache.NewKey("GET", u)

	cases := []struct {
		name string
		cfg  config.GlobalConfig
	}{
		{name: "memory", cfg: config.GlobalConfig{CacheBackend: config.CacheBackendMemory, CacheMaxEntries: 4}},
		{name: "default", cfg: config.GlobalConfig{}},
		{name: "leveldb", cfg: config.GlobalConfig{CacheBackend: config.CacheBackendLevelDB, CachePath: filepath.Join(t.TempDir(), "edge")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache, err := OpenEdgeCache(tc.cfg)
			if err != nil {
				t.Fatalf("open cache: %v", err)
			}
			defer cache.Close()

			if err := cache.Put(context.Background(), key, edgecache.Response{Status: 200, Body: []byte("x")}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if cache.Len() != 1 {
				t.Fatalf("expected one entry, got %d", cache.Len())
			}
		})
	}
}

func TestOpenEdgeCacheRejectsUnknownBackend(t *testing.T) {
	if _, err := OpenEdgeCache(config.GlobalConfig{CacheBackend: "redis"}); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}
