package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	switch g.CacheBackend {
	case CacheBackendMemory:
		if g.CacheMaxEntries < 0 {
			return newFieldError("Global.CacheMaxEntries", "不能为负数")
		}
	case CacheBackendLevelDB:
		if strings.TrimSpace(g.CachePath) == "" {
			return newFieldError("Global.CachePath", "leveldb 后端必须指定目录")
		}
	default:
		return newFieldError("Global.CacheBackend", "仅支持 memory/leveldb")
	}
	if g.ReadTimeout.DurationValue() <= 0 {
		return newFieldError("Global.ReadTimeout", "必须大于 0")
	}
	if g.WriteTimeout.DurationValue() <= 0 {
		return newFieldError("Global.WriteTimeout", "必须大于 0")
	}
	if g.IdleTimeout.DurationValue() <= 0 {
		return newFieldError("Global.IdleTimeout", "必须大于 0")
	}
	if g.ShutdownTimeout.DurationValue() <= 0 {
		return newFieldError("Global.ShutdownTimeout", "必须大于 0")
	}

	if len(c.Sites) == 0 {
		return errors.New("至少需要配置一个 Site")
	}

	seenNames := map[string]struct{}{}
	seenDomains := map[string]struct{}{}
	for i := range c.Sites {
		site := &c.Sites[i]
		if site.Name == "" {
			return newFieldError("Site[].Name", "不能为空")
		}
		if _, exists := seenNames[site.Name]; exists {
			return newFieldError(siteField(site.Name, "Name"), "重复")
		}
		seenNames[site.Name] = struct{}{}

		if err := validateDomain(site.Domain); err != nil {
			return fmt.Errorf("%s: %w", siteField(site.Name, "Domain"), err)
		}
		domainKey := strings.ToLower(site.Domain)
		if _, exists := seenDomains[domainKey]; exists {
			return newFieldError(siteField(site.Name, "Domain"), "与其他站点重复")
		}
		seenDomains[domainKey] = struct{}{}

		if strings.TrimSpace(site.AssetsPath) == "" {
			return newFieldError(siteField(site.Name, "AssetsPath"), "不能为空")
		}
		if site.IndexPage == "" {
			return newFieldError(siteField(site.Name, "IndexPage"), "不能为空")
		}
		if err := validateAssetKey(site.IndexPage); err != nil {
			return fmt.Errorf("%s: %w", siteField(site.Name, "IndexPage"), err)
		}
		if site.ErrorPage != "" {
			if err := validateAssetKey(site.ErrorPage); err != nil {
				return fmt.Errorf("%s: %w", siteField(site.Name, "ErrorPage"), err)
			}
		}
	}

	return nil
}

func validateDomain(domain string) error {
	if domain == "" {
		return errors.New("Domain 不能为空")
	}
	if strings.Contains(domain, "/") {
		return errors.New("Domain 不允许包含路径")
	}
	if strings.Contains(domain, " ") {
		return errors.New("Domain 不允许包含空格")
	}
	if strings.Contains(domain, "://") {
		return errors.New("Domain 不应包含协议头")
	}
	return nil
}

// validateAssetKey 确保页面路径与资源仓库的键格式一致（不带前导 /）。
func validateAssetKey(key string) error {
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("页面路径不应以 / 开头: %s", key)
	}
	return nil
}
