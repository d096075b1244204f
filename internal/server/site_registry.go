package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/any-hub/site-router/internal/assets"
	"github.com/any-hub/site-router/internal/config"
	"github.com/any-hub/site-router/internal/edgecache"
	"github.com/any-hub/site-router/internal/manifest"
	"github.com/any-hub/site-router/internal/router"
)

// SiteRoute 将站点配置与启动时构建好的依赖聚合在一起，供请求处理直接复用。
type SiteRoute struct {
	// Config 是用户在 config.toml 中声明的 Site 字段副本。
	Config config.SiteConfig
	// ListenPort 记录当前监听端口，方便日志输出。
	ListenPort int
	// Manifest 在启动时加载一次，整个进程生命周期内只读。
	Manifest *manifest.Manifest
	// Resolver 封装该站点的缓存校验与回退链。
	Resolver *router.Resolver
}

// SiteRegistry 提供 Host/Host:port 到 SiteRoute 的查询能力，所有站点共享同一个监听端口与边缘缓存。
type SiteRegistry struct {
	routes  map[string]*SiteRoute
	ordered []*SiteRoute
}

// NewSiteRegistry 根据配置加载清单、打开资源目录并构建 Resolver。调用方应在启动阶段创建一次并复用。
func NewSiteRegistry(cfg *config.Config, cache edgecache.Cache) (*SiteRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cache == nil {
		return nil, errors.New("edge cache is nil")
	}

	registry := &SiteRegistry{
		routes: make(map[string]*SiteRoute, len(cfg.Sites)),
	}

	for _, site := range cfg.Sites {
		normalizedHost := normalizeDomain(site.Domain)
		if normalizedHost == "" {
			return nil, fmt.Errorf("invalid domain for site %s", site.Name)
		}
		if _, exists := registry.routes[normalizedHost]; exists {
			return nil, fmt.Errorf("duplicate domain mapping detected for %s", normalizedHost)
		}

		route, err := buildSiteRoute(cfg, site, cache)
		if err != nil {
			return nil, err
		}

		registry.routes[normalizedHost] = route
		registry.ordered = append(registry.ordered, route)
	}

	return registry, nil
}

// Lookup 根据 Host 或 Host:port 查找 SiteRoute。
func (r *SiteRegistry) Lookup(host string) (*SiteRoute, bool) {
	if r == nil {
		return nil, false
	}

	normalizedHost, _ := normalizeHost(host)
	if normalizedHost == "" {
		return nil, false
	}

	route, ok := r.routes[normalizedHost]
	return route, ok
}

// List 返回当前注册的 SiteRoute 列表（按配置定义的顺序），用于诊断输出。
func (r *SiteRegistry) List() []SiteRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}

	result := make([]SiteRoute, len(r.ordered))
	for i, route := range r.ordered {
		result[i] = *route
	}
	return result
}

func buildSiteRoute(cfg *config.Config, site config.SiteConfig, cache edgecache.Cache) (*SiteRoute, error) {
	m, err := manifest.Load(site.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	store, err := assets.NewFileStore(site.AssetsPath, assets.FileStoreOptions{
		DefaultCacheControl: site.CacheControl,
	})
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	resolver, err := router.New(router.Site{
		IndexPage: site.IndexPage,
		ErrorPage: site.ErrorPage,
	}, m, store, cache)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	return &SiteRoute{
		Config:     site,
		ListenPort: cfg.Global.ListenPort,
		Manifest:   m,
		Resolver:   resolver,
	}, nil
}

func normalizeDomain(domain string) string {
	host, _ := normalizeHost(domain)
	return host
}

func normalizeHost(raw string) (string, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0
	}

	host := raw
	port := 0

	if strings.Contains(raw, ":") {
		if h, p, err := net.SplitHostPort(raw); err == nil {
			host = h
			if parsedPort, err := strconv.Atoi(p); err == nil {
				port = parsedPort
			}
		} else if idx := strings.LastIndex(raw, ":"); idx > -1 && strings.Count(raw[idx+1:], ":") == 0 {
			if parsedPort, err := strconv.Atoi(raw[idx+1:]); err == nil {
				host = raw[:idx]
				port = parsedPort
			}
		}
	}

	host = strings.TrimSuffix(host, ".")
	host = strings.ToLower(host)
	return host, port
}
