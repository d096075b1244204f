package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/any-hub/site-router/internal/assets"
	"github.com/any-hub/site-router/internal/edgecache"
	"github.com/any-hub/site-router/internal/manifest"
)

const (
	headerContentType  = "Content-Type"
	headerCacheControl = "Cache-Control"

	notFoundBody = "Page Not Found"
)

// Outcome 标记本次请求在状态机中的终止分支，仅用于日志与诊断。
type Outcome string

const (
	OutcomeCacheHit  Outcome = "cache_hit"
	OutcomePrimary   Outcome = "primary"
	OutcomeErrorPage Outcome = "error_page"
	OutcomeIndexPage Outcome = "index_page"
	OutcomeNotFound  Outcome = "not_found"
)

// Site 是单个站点的只读配置。
type Site struct {
	IndexPage string
	ErrorPage string
}

// Request 是 router 需要的最小请求视图。
type Request struct {
	Method string
	URL    *url.URL
}

// Result 汇总一次解析的响应与过程信息。
type Result struct {
	Response edgecache.Response
	Outcome  Outcome
	// AssetPath 是由 URL 推导出的目标路径。
	AssetPath string
	// Served 是实际读取的资源路径，缓存命中或 404 终态时为空。
	Served   string
	CacheKey edgecache.Key
}

// CacheHit reports whether the response came from the edge cache.
func (r Result) CacheHit() bool {
	return r.Outcome == OutcomeCacheHit
}

// Resolver 持有站点配置、指纹清单以及两个外部存储，自身无可变状态，可被并发调用。
type Resolver struct {
	site     Site
	manifest *manifest.Manifest
	assets   assets.Store
	cache    edgecache.Cache
}

// New 构造 Resolver；manifest 为 nil 时视为空清单。
func New(site Site, m *manifest.Manifest, store assets.Store, cache edgecache.Cache) (*Resolver, error) {
	if site.IndexPage == "" {
		return nil, errors.New("index page is required")
	}
	if store == nil {
		return nil, errors.New("asset store is required")
	}
	if cache == nil {
		return nil, errors.New("edge cache is required")
	}
	if m == nil {
		m = manifest.New(nil)
	}
	return &Resolver{
		site:     site,
		manifest: m,
		assets:   store,
		cache:    cache,
	}, nil
}

// Resolve 执行 路径解析 → 缓存校验 → 回退链 的完整流程。
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	target := ResolvePath(req.URL, r.site.IndexPage)
	key := edgecache.NewKey(req.Method, req.URL)

	cached, err := r.lookupCache(ctx, key, target)
	if err != nil {
		return Result{}, err
	}
	if cached != nil {
		return Result{
			Response:  *cached,
			Outcome:   OutcomeCacheHit,
			AssetPath: target,
			CacheKey:  key,
		}, nil
	}

	res, err := r.fallback(ctx, key, target)
	if err != nil {
		return Result{}, err
	}
	res.AssetPath = target
	res.CacheKey = key
	return res, nil
}

// lookupCache 仅当缓存条目的指纹与清单中 target 的指纹一致时返回命中；
// 不一致的旧条目保持原样，等待下一次写入覆盖。
func (r *Resolver) lookupCache(ctx context.Context, key edgecache.Key, target string) (*edgecache.Response, error) {
	cached, err := r.cache.Match(ctx, key)
	if err != nil {
		if errors.Is(err, edgecache.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("edge cache match: %w", err)
	}

	expected, ok := r.manifest.Lookup(target)
	if !ok || cached.Fingerprint() != expected {
		return nil, nil
	}
	return cached, nil
}

type candidate struct {
	key     string
	status  int
	outcome Outcome
}

func (r *Resolver) candidates(target string) []candidate {
	chain := []candidate{{key: target, status: http.StatusOK, outcome: OutcomePrimary}}
	if r.site.ErrorPage != "" {
		return append(chain, candidate{key: r.site.ErrorPage, status: http.StatusNotFound, outcome: OutcomeErrorPage})
	}
	return append(chain, candidate{key: r.site.IndexPage, status: http.StatusOK, outcome: OutcomeIndexPage})
}

func (r *Resolver) fallback(ctx context.Context, key edgecache.Key, target string) (Result, error) {
	for _, c := range r.candidates(target) {
		rec, err := r.assets.Get(ctx, c.key)
		if errors.Is(err, assets.ErrNotFound) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("asset lookup %s: %w", c.key, err)
		}
		if len(rec.Value) == 0 {
			continue
		}

		resp, err := r.respond(ctx, key, c.status, c.key, rec)
		if err != nil {
			return Result{}, err
		}
		return Result{Response: resp, Outcome: c.outcome, Served: c.key}, nil
	}

	return Result{Response: notFound(), Outcome: OutcomeNotFound}, nil
}

// respond 构造响应并写入边缘缓存。只有 served 在清单中有指纹时才设置响应头。
func (r *Resolver) respond(ctx context.Context, key edgecache.Key, status int, served string, rec *assets.Record) (edgecache.Response, error) {
	header := http.Header{}
	if fingerprint, ok := r.manifest.Lookup(served); ok {
		header.Set(edgecache.HeaderFingerprint, fingerprint)
		setIfPresent(header, headerContentType, rec.Metadata.ContentType)
		setIfPresent(header, headerCacheControl, rec.Metadata.CacheControl)
	}

	resp := edgecache.Response{
		Status: status,
		Header: header,
		Body:   rec.Value,
	}
	if err := r.cache.Put(ctx, key, resp); err != nil {
		return edgecache.Response{}, fmt.Errorf("edge cache put: %w", err)
	}
	return resp, nil
}

func setIfPresent(header http.Header, key, value string) {
	if value != "" {
		header.Set(key, value)
	}
}

func notFound() edgecache.Response {
	return edgecache.Response{
		Status: http.StatusNotFound,
		Header: http.Header{},
		Body:   []byte(notFoundBody),
	}
}
