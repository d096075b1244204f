package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供站点/资源路径/命中状态字段，供访问日志复用。
func RequestFields(site, domain, assetPath, outcome string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"site":       site,
		"domain":     domain,
		"asset_path": assetPath,
		"outcome":    outcome,
		"cache_hit":  cacheHit,
	}
}
