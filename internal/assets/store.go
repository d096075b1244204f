package assets

import (
	"context"
	"errors"
)

// Store 负责按精确路径读写静态资源。
type Store interface {
	// Get 返回 key 对应的资源；不存在或内容为空时返回 ErrNotFound。
	Get(ctx context.Context, key string) (*Record, error)

	// Put 写入资源正文与元数据，实现需保证写入原子性。
	Put(ctx context.Context, key string, rec Record) error
}

// Metadata 是随资源一起保存的响应元数据，router 原样复制到响应头。
type Metadata struct {
	ContentType  string `yaml:"contentType,omitempty"`
	CacheControl string `yaml:"cacheControl,omitempty"`
}

// Record 表示一次命中的资源读取结果。
type Record struct {
	Value    []byte
	Metadata Metadata
}

// ErrNotFound 表示资源不存在。
var ErrNotFound = errors.New("asset not found")
