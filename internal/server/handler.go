package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/site-router/internal/logging"
	"github.com/any-hub/site-router/internal/router"
)

// Handler 将 Fiber 请求转换为 router.Request，执行解析并把结果写回客户端，
// 同时输出一条结构化访问日志。
type Handler struct {
	logger *logrus.Logger
}

// NewHandler constructs the default SiteHandler.
func NewHandler(logger *logrus.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle 实现 SiteHandler。
func (h *Handler) Handle(c fiber.Ctx, route *SiteRoute) (err error) {
	started := time.Now()
	requestID := RequestID(c)

	defer func() {
		if r := recover(); r != nil {
			err = h.respondPanic(c, route, r, requestID, started)
		}
	}()

	req, err := buildRequest(c)
	if err != nil {
		h.logFailure(route, "", requestID, started, err)
		return writeError(c, fiber.StatusBadRequest, "invalid_request_uri")
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := route.Resolver.Resolve(ctx, req)
	if err != nil {
		h.logFailure(route, result.AssetPath, requestID, started, err)
		return writeError(c, fiber.StatusInternalServerError, "resolve_failed")
	}

	if err := writeResponse(c, result.Response); err != nil {
		h.logFailure(route, result.AssetPath, requestID, started, err)
		return err
	}
	h.logResult(route, result, requestID, started)
	return nil
}

// buildRequest 使用原始请求行中的 URI，保持路径的转义形式不被改写。
func buildRequest(c fiber.Ctx) (router.Request, error) {
	raw := c.OriginalURL()
	if strings.HasPrefix(raw, "/") {
		raw = c.BaseURL() + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return router.Request{}, fmt.Errorf("parse request uri: %w", err)
	}
	return router.Request{Method: c.Method(), URL: u}, nil
}

// respondPanic 丢弃已写入的状态、头部与响应体，只返回带请求 ID 的 JSON 错误。
func (h *Handler) respondPanic(c fiber.Ctx, route *SiteRoute, recovered interface{}, requestID string, started time.Time) error {
	h.logFailure(route, "", requestID, started, fmt.Errorf("panic: %v", recovered))
	c.Response().Reset()
	if requestID != "" {
		c.Set("X-Request-ID", requestID)
	}
	return writeError(c, fiber.StatusInternalServerError, "resolve_failed")
}

func writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *Handler) logResult(route *SiteRoute, result router.Result, requestID string, started time.Time) {
	if h.logger == nil {
		return
	}
	fields := logging.RequestFields(
		route.Config.Name,
		route.Config.Domain,
		result.AssetPath,
		string(result.Outcome),
		result.CacheHit(),
	)
	fields["action"] = "serve"
	fields["status"] = result.Response.Status
	fields["served"] = result.Served
	fields["cache_key"] = result.CacheKey.Digest()
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	h.logger.WithFields(fields).Info("serve_complete")
}

func (h *Handler) logFailure(route *SiteRoute, assetPath, requestID string, started time.Time, err error) {
	if h.logger == nil {
		return
	}
	fields := logging.RequestFields(route.Config.Name, route.Config.Domain, assetPath, "", false)
	fields["action"] = "serve"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	fields["error"] = err.Error()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	h.logger.WithFields(fields).Error("serve_failed")
}
