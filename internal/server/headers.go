package server

import (
	"net/textproto"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/site-router/internal/edgecache"
)

// hopByHopHeaders 定义 RFC 7230 中只对单跳连接有效的头部，缓存响应写回时需剔除。
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Proxy-Connection":    {}, // 非标准字段，但部分代理仍使用
}

// IsHopByHopHeader reports whether the header must not be replayed from a stored response.
func IsHopByHopHeader(key string) bool {
	_, ok := hopByHopHeaders[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

// writeResponse 将 edgecache.Response 原样写入 Fiber 响应；没有 Content-Type 时不补默认值。
func writeResponse(c fiber.Ctx, resp edgecache.Response) error {
	header := &c.Response().Header
	for key, values := range resp.Header {
		if IsHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			header.Add(key, value)
		}
	}
	if resp.Header.Get(fiber.HeaderContentType) == "" {
		header.SetNoDefaultContentType(true)
	}

	return c.Status(resp.Status).Send(resp.Body)
}
