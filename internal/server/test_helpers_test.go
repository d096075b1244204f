package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/site-router/internal/config"
	"github.com/any-hub/site-router/internal/edgecache"
	"github.com/any-hub/site-router/internal/logging"
)

// writeSiteFiles 在临时目录下写入站点资源，返回资源根目录。
func writeSiteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func writeManifestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

// newFixtureConfig 构建 docs/app/bare 三个站点，分别覆盖错误页、首页回退与完全缺失三种回退分支。
func newFixtureConfig(t *testing.T) *config.Config {
	t.Helper()

	docsRoot := writeSiteFiles(t, map[string]string{
		"index.html": "<h1>docs</h1>",
		"guide.html": "guide v1",
		"404.html":   "<h1>missing</h1>",
	})
	docsManifest := writeManifestFile(t, "index.html: fp-index\nguide.html: fp-guide\n404.html: fp-404\n")

	appRoot := writeSiteFiles(t, map[string]string{
		"index.html": "<div id=app></div>",
	})
	appManifest := writeManifestFile(t, "index.html: fp-app\n")

	bareRoot := writeSiteFiles(t, nil)

	return &config.Config{
		Global: config.GlobalConfig{
			ListenPort:      5000,
			CacheBackend:    config.CacheBackendMemory,
			CacheMaxEntries: 128,
		},
		Sites: []config.SiteConfig{
			{
				Name:         "docs",
				Domain:       "docs.local",
				AssetsPath:   docsRoot,
				ManifestPath: docsManifest,
				IndexPage:    "index.html",
				ErrorPage:    "404.html",
				CacheControl: config.DefaultCacheControl,
			},
			{
				Name:         "app",
				Domain:       "app.local",
				AssetsPath:   appRoot,
				ManifestPath: appManifest,
				IndexPage:    "index.html",
				CacheControl: "no-cache",
			},
			{
				Name:         "bare",
				Domain:       "bare.local",
				AssetsPath:   bareRoot,
				IndexPage:    "index.html",
				CacheControl: config.DefaultCacheControl,
			},
		},
	}
}

// newServingApp 使用真实 Handler 组装 Fiber 应用。
func newServingApp(t *testing.T, cfg *config.Config, cache edgecache.Cache) *fiber.App {
	t.Helper()

	registry, err := NewSiteRegistry(cfg, cache)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	logger := logging.NewDiscardLogger()
	app, err := NewApp(AppOptions{
		Logger:     logger,
		Registry:   registry,
		Handler:    NewHandler(logger),
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}
