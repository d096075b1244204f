// Package manifest loads the build-time fingerprint manifest: a mapping from
// asset path to a stable content identifier produced by the deploy pipeline.
// A Manifest never changes after Load; the router treats it as the single
// source of truth for cache freshness.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest 是只读的 asset path → fingerprint 映射，可被并发读取。
type Manifest struct {
	entries map[string]string
}

// New 复制 entries 构造 Manifest，空键会被忽略。
func New(entries map[string]string) *Manifest {
	copied := make(map[string]string, len(entries))
	for path, fingerprint := range entries {
		if path == "" {
			continue
		}
		copied[path] = fingerprint
	}
	return &Manifest{entries: copied}
}

// Load 读取 JSON 或 YAML 格式的清单文件；path 为空时返回空清单。
func Load(path string) (*Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取指纹清单失败: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a flat path → fingerprint document. JSON input is accepted
// because it is valid YAML.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析指纹清单失败: %w", err)
	}
	for path := range raw {
		if strings.HasPrefix(path, "/") {
			return nil, errors.New("清单路径不应以 / 开头: " + path)
		}
	}
	return New(raw), nil
}

// Lookup 返回 path 的指纹；缺失或为空串时 ok=false。
func (m *Manifest) Lookup(path string) (string, bool) {
	if m == nil {
		return "", false
	}
	fingerprint, ok := m.entries[path]
	if !ok || fingerprint == "" {
		return "", false
	}
	return fingerprint, true
}

// Len 返回清单条目数。
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
