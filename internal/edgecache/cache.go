package edgecache

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HeaderFingerprint 是缓存响应中携带内容指纹的响应头。
const HeaderFingerprint = "ETag"

var (
	// ErrNotFound 表示缓存中不存在对应条目。
	ErrNotFound = errors.New("edge cache entry not found")
	// ErrClosed 表示缓存实例已关闭。
	ErrClosed = errors.New("edge cache closed")
)

// Cache 以请求 Key 为索引保存完整响应，实现需自行保证并发安全。
type Cache interface {
	// Match 返回 key 对应的响应副本；不存在时返回 ErrNotFound。
	Match(ctx context.Context, key Key) (*Response, error)

	// Put 写入（或覆盖）key 对应的响应，调用方之后对 resp 的修改不影响已缓存内容。
	Put(ctx context.Context, key Key, resp Response) error

	// Len 返回当前条目数，仅用于诊断输出。
	Len() int

	Close() error
}

// Key 是请求在边缘缓存中的不透明标识，由 method + 完整 URL 确定性构造。
type Key struct {
	method string
	url    string
}

// NewKey 根据请求方法和完整 URL 构造缓存键，空 method 视为 GET。
func NewKey(method string, u *url.URL) Key {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "" {
		m = http.MethodGet
	}
	raw := ""
	if u != nil {
		raw = u.String()
	}
	return Key{method: m, url: raw}
}

// String returns the full identity of the key. Backends index by this value.
func (k Key) String() string {
	return k.method + " " + k.url
}

// IsZero reports whether the key was built without a URL.
func (k Key) IsZero() bool {
	return k.url == ""
}

// Digest 返回 xxhash64 十六进制摘要，供日志字段与分片选择使用，不作为唯一标识。
func (k Key) Digest() string {
	return strconv.FormatUint(k.sum(), 16)
}

func (k Key) sum() uint64 {
	return xxhash.Sum64String(k.String())
}

// Response 描述一次完整响应，既是缓存负载也是 router 的输出。
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fingerprint 返回响应中保存的内容指纹，缺失时为空串。
func (r Response) Fingerprint() string {
	return r.Header.Get(HeaderFingerprint)
}

// Clone 深拷贝 Header 与 Body，保证缓存内外互不影响。
func (r Response) Clone() Response {
	out := Response{Status: r.Status}
	if r.Header != nil {
		out.Header = r.Header.Clone()
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}
