package config

import (
	"fmt"
	"time"
)

// Duration 由 durationDecodeHook 解析，兼容纯秒数值与 Go Duration 字符串。
type Duration time.Duration

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// 边缘缓存后端类型。
const (
	CacheBackendMemory  = "memory"
	CacheBackendLevelDB = "leveldb"
)

// DefaultCacheControl 是未提供 sidecar 元数据时资源使用的 Cache-Control。
const DefaultCacheControl = "public, max-age=0, must-revalidate"

// GlobalConfig 描述全局运行时行为，所有 Site 共享同一份参数。
type GlobalConfig struct {
	ListenPort        int      `mapstructure:"ListenPort"`
	LogLevel          string   `mapstructure:"LogLevel"`
	LogFilePath       string   `mapstructure:"LogFilePath"`
	LogMaxSize        int      `mapstructure:"LogMaxSize"`
	LogMaxBackups     int      `mapstructure:"LogMaxBackups"`
	LogCompress       bool     `mapstructure:"LogCompress"`
	CacheBackend      string   `mapstructure:"CacheBackend"`
	CachePath         string   `mapstructure:"CachePath"`
	CacheMaxEntries   int      `mapstructure:"CacheMaxEntries"`
	ReadTimeout       Duration `mapstructure:"ReadTimeout"`
	WriteTimeout      Duration `mapstructure:"WriteTimeout"`
	IdleTimeout       Duration `mapstructure:"IdleTimeout"`
	ShutdownTimeout   Duration `mapstructure:"ShutdownTimeout"`
	EnableDiagnostics bool     `mapstructure:"EnableDiagnostics"`
}

// SiteConfig 描述单个静态站点：域名、资源目录、指纹清单以及回退页面。
type SiteConfig struct {
	Name         string `mapstructure:"Name"`
	Domain       string `mapstructure:"Domain"`
	AssetsPath   string `mapstructure:"AssetsPath"`
	ManifestPath string `mapstructure:"ManifestPath"`
	IndexPage    string `mapstructure:"IndexPage"`
	ErrorPage    string `mapstructure:"ErrorPage"`
	CacheControl string `mapstructure:"CacheControl"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Sites  []SiteConfig `mapstructure:"Site"`
}

// HasErrorPage 表示站点是否配置了自定义错误页。
func (s SiteConfig) HasErrorPage() bool {
	return s.ErrorPage != ""
}

// FallbackMode 输出 `error_page` 或 `index_page`，供日志字段使用。
func (s SiteConfig) FallbackMode() string {
	if s.HasErrorPage() {
		return "error_page"
	}
	return "index_page"
}

// SiteSummaries 返回所有站点的摘要，例如 docs:docs.example.com。
func SiteSummaries(sites []SiteConfig) []string {
	if len(sites) == 0 {
		return nil
	}
	result := make([]string, len(sites))
	for i, site := range sites {
		result[i] = fmt.Sprintf("%s:%s", site.Name, site.Domain)
	}
	return result
}
