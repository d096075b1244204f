package integration

import (
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/site-router/internal/config"
	"github.com/any-hub/site-router/internal/edgecache"
	"github.com/any-hub/site-router/internal/logging"
	"github.com/any-hub/site-router/internal/server"
	"github.com/any-hub/site-router/internal/server/routes"
)

type siteFixture struct {
	dir        string
	configPath string
}

// newSiteFixture 在临时目录生成 config.toml、站点资源与指纹清单，配置使用相对路径。
func newSiteFixture(t *testing.T, global string) *siteFixture {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sites", "docs", "index.html"), "<h1>docs</h1>")
	writeFile(t, filepath.Join(dir, "sites", "docs", "guide.html"), "guide")
	writeFile(t, filepath.Join(dir, "sites", "docs", "404.html"), "<h1>missing</h1>")
	writeFile(t, filepath.Join(dir, "sites", "docs", "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(dir, "sites", "docs", "app.js.meta.yaml"), "contentType: text/javascript\ncacheControl: public, max-age=31536000, immutable\n")
	writeFile(t, filepath.Join(dir, "sites", "docs.json"), `{"index.html":"idx-1","guide.html":"guide-1","404.html":"nf-1","app.js":"js-1"}`)
	writeFile(t, filepath.Join(dir, "sites", "shop", "index.html"), "<div id=shop></div>")
	writeFile(t, filepath.Join(dir, "sites", "shop.yaml"), "index.html: shop-1\n")

	content := fmt.Sprintf(`
ListenPort = 5000
%s

[[Site]]
Name = "docs"
Domain = "docs.site.local"
AssetsPath = "./sites/docs"
ManifestPath = "./sites/docs.json"
IndexPage = "index.html"
ErrorPage = "404.html"

[[Site]]
Name = "shop"
Domain = "shop.site.local"
AssetsPath = "./sites/shop"
ManifestPath = "./sites/shop.yaml"
IndexPage = "index.html"
`, global)
	configPath := filepath.Join(dir, "config.toml")
	writeFile(t, configPath, strings.TrimSpace(content))

	return &siteFixture{dir: dir, configPath: configPath}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

type integrationApp struct {
	*fiber.App
	cache edgecache.Cache
}

// startStack 按 main 的顺序组装：配置 → 边缘缓存 → SiteRegistry → Fiber。
func startStack(t *testing.T, configPath string) *integrationApp {
	t.Helper()

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cache, err := server.OpenEdgeCache(cfg.Global)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	registry, err := server.NewSiteRegistry(cfg, cache)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	logger := logging.NewDiscardLogger()
	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Registry:     registry,
		Handler:      server.NewHandler(logger),
		ListenPort:   cfg.Global.ListenPort,
		ReadTimeout:  cfg.Global.ReadTimeout.DurationValue(),
		WriteTimeout: cfg.Global.WriteTimeout.DurationValue(),
		IdleTimeout:  cfg.Global.IdleTimeout.DurationValue(),
		Diagnostics:  cfg.Global.EnableDiagnostics,
	})
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	if cfg.Global.EnableDiagnostics {
		routes.RegisterSiteRoutes(app, registry, routes.CacheInfo{Backend: cfg.Global.CacheBackend, Cache: cache})
	}
	return &integrationApp{App: app, cache: cache}
}

type response struct {
	status int
	header map[string]string
	body   string
}

func (a *integrationApp) get(t *testing.T, target string) response {
	t.Helper()
	resp, err := a.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("app test %s: %v", target, err)
	}
	body, _ := io.ReadAll(resp.Body)
	header := map[string]string{}
	for _, name := range []string{"ETag", "Content-Type", "Cache-Control", "X-Request-ID"} {
		header[name] = resp.Header.Get(name)
	}
	return response{status: resp.StatusCode, header: header, body: string(body)}
}
