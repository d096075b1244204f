package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是全局配置项的环境变量前缀，例如 SITE_ROUTER_LISTENPORT。
const EnvPrefix = "SITE_ROUTER"

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量覆盖与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := rejectSiteLevelPorts(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Sites {
		applySiteDefaults(&cfg.Sites[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := absolutizePaths(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("CacheBackend", CacheBackendMemory)
	v.SetDefault("CachePath", "./storage/edge-cache")
	v.SetDefault("CacheMaxEntries", 10000)
	v.SetDefault("ReadTimeout", "30s")
	v.SetDefault("WriteTimeout", "30s")
	v.SetDefault("IdleTimeout", "60s")
	v.SetDefault("ShutdownTimeout", "10s")
	v.SetDefault("EnableDiagnostics", false)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	g.CacheBackend = strings.ToLower(strings.TrimSpace(g.CacheBackend))
	if g.CacheBackend == "" {
		g.CacheBackend = CacheBackendMemory
	}
	if g.ReadTimeout.DurationValue() == 0 {
		g.ReadTimeout = Duration(30 * time.Second)
	}
	if g.WriteTimeout.DurationValue() == 0 {
		g.WriteTimeout = Duration(30 * time.Second)
	}
	if g.IdleTimeout.DurationValue() == 0 {
		g.IdleTimeout = Duration(60 * time.Second)
	}
	if g.ShutdownTimeout.DurationValue() == 0 {
		g.ShutdownTimeout = Duration(10 * time.Second)
	}
}

func applySiteDefaults(s *SiteConfig) {
	s.Name = strings.TrimSpace(s.Name)
	s.Domain = strings.TrimSpace(s.Domain)
	s.IndexPage = strings.TrimSpace(s.IndexPage)
	s.ErrorPage = strings.TrimSpace(s.ErrorPage)
	if strings.TrimSpace(s.CacheControl) == "" {
		s.CacheControl = DefaultCacheControl
	}
}

// absolutizePaths 将相对路径解析为相对配置文件所在目录的绝对路径。
func absolutizePaths(cfg *Config, baseDir string) error {
	if cfg.Global.CacheBackend == CacheBackendLevelDB {
		abs, err := resolvePath(baseDir, cfg.Global.CachePath)
		if err != nil {
			return fmt.Errorf("无法解析缓存目录: %w", err)
		}
		cfg.Global.CachePath = abs
	}

	for i := range cfg.Sites {
		site := &cfg.Sites[i]
		abs, err := resolvePath(baseDir, site.AssetsPath)
		if err != nil {
			return fmt.Errorf("%s: %w", siteField(site.Name, "AssetsPath"), err)
		}
		site.AssetsPath = abs
		if site.ManifestPath != "" {
			abs, err := resolvePath(baseDir, site.ManifestPath)
			if err != nil {
				return fmt.Errorf("%s: %w", siteField(site.Name, "ManifestPath"), err)
			}
			site.ManifestPath = abs
		}
	}
	return nil
}

func resolvePath(baseDir, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	return filepath.Abs(p)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// rejectSiteLevelPorts 拒绝 [[Site]] 中的 Port 字段，所有站点共享全局 ListenPort。
func rejectSiteLevelPorts(v *viper.Viper) error {
	raw := v.Get("Site")
	sites, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	for idx, entry := range sites {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if _, exists := lookupFold(m, "Port"); exists {
			name := fmt.Sprintf("#%d", idx)
			if rawName, _ := lookupFold(m, "Name"); rawName != nil {
				if str, ok := rawName.(string); ok && str != "" {
					name = str
				}
			}
			return newFieldError(siteField(name, "Port"), "不支持站点级端口，请使用全局 ListenPort")
		}
	}

	return nil
}

// lookupFold 忽略大小写读取 map 字段，viper 可能已将嵌套键转为小写。
func lookupFold(m map[string]interface{}, key string) (interface{}, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
