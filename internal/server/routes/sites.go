package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/site-router/internal/edgecache"
	"github.com/any-hub/site-router/internal/server"
)

// CacheInfo 描述诊断接口需要展示的边缘缓存信息。
type CacheInfo struct {
	Backend string
	Cache   edgecache.Cache
}

// RegisterSiteRoutes 暴露 /-/sites 诊断接口，供 SRE 查询站点与域名、回退策略的绑定关系。
func RegisterSiteRoutes(app *fiber.App, registry *server.SiteRegistry, cache CacheInfo) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/sites", func(c fiber.Ctx) error {
		payload := fiber.Map{
			"sites": encodeSites(registry.List()),
			"cache": encodeCache(cache),
		}
		return c.JSON(payload)
	})

	app.Get("/-/sites/:name", func(c fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "site_name_required"})
		}
		for _, route := range registry.List() {
			if route.Config.Name == name {
				return c.JSON(encodeSite(route))
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "site_not_found"})
	})
}

type sitePayload struct {
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	Port            int    `json:"port"`
	AssetsPath      string `json:"assets_path"`
	ManifestPath    string `json:"manifest_path,omitempty"`
	ManifestEntries int    `json:"manifest_entries"`
	IndexPage       string `json:"index_page"`
	ErrorPage       string `json:"error_page,omitempty"`
	FallbackMode    string `json:"fallback_mode"`
	CacheControl    string `json:"cache_control"`
}

type cachePayload struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
}

func encodeSites(routes []server.SiteRoute) []sitePayload {
	if len(routes) == 0 {
		return nil
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Config.Name < routes[j].Config.Name
	})
	result := make([]sitePayload, 0, len(routes))
	for _, route := range routes {
		result = append(result, encodeSite(route))
	}
	return result
}

func encodeSite(route server.SiteRoute) sitePayload {
	cfg := route.Config
	return sitePayload{
		Name:            cfg.Name,
		Domain:          cfg.Domain,
		Port:            route.ListenPort,
		AssetsPath:      cfg.AssetsPath,
		ManifestPath:    cfg.ManifestPath,
		ManifestEntries: route.Manifest.Len(),
		IndexPage:       cfg.IndexPage,
		ErrorPage:       cfg.ErrorPage,
		FallbackMode:    cfg.FallbackMode(),
		CacheControl:    cfg.CacheControl,
	}
}

func encodeCache(info CacheInfo) cachePayload {
	payload := cachePayload{Backend: info.Backend}
	if info.Cache != nil {
		payload.Entries = info.Cache.Len()
	}
	return payload
}
