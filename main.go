package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/site-router/internal/config"
	"github.com/any-hub/site-router/internal/edgecache"
	"github.com/any-hub/site-router/internal/logging"
	"github.com/any-hub/site-router/internal/server"
	"github.com/any-hub/site-router/internal/server/routes"
	"github.com/any-hub/site-router/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		return checkConfig(cfg, logger, opts.configPath)
	}

	// CLI 启动遵循“配置 → 边缘缓存 → SiteRegistry → Fiber server”顺序，
	// 所有站点共享同一个缓存实例。
	cache, err := server.OpenEdgeCache(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化边缘缓存失败: %v\n", err)
		return 1
	}
	defer closeCache(cache, logger)

	registry, err := server.NewSiteRegistry(cfg, cache)
	if err != nil {
		fmt.Fprintf(stdErr, "构建站点注册表失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["sites"] = config.SiteSummaries(cfg.Sites)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["cache_backend"] = cfg.Global.CacheBackend
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startHTTPServer(ctx, cfg, registry, cache, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// checkConfig 在不监听端口的情况下加载所有清单与资源目录，验证配置可用。
func checkConfig(cfg *config.Config, logger *logrus.Logger, configPath string) int {
	registry, err := server.NewSiteRegistry(cfg, edgecache.NewMemory(0))
	if err != nil {
		fields := logging.BaseFields("check_config", configPath)
		fields["result"] = "failed"
		fields["error"] = err.Error()
		logger.WithFields(fields).Error("配置校验失败")
		fmt.Fprintf(stdErr, "配置校验失败: %v\n", err)
		return 1
	}

	entries := 0
	for _, route := range registry.List() {
		entries += route.Manifest.Len()
	}

	fields := logging.BaseFields("check_config", configPath)
	fields["sites"] = config.SiteSummaries(cfg.Sites)
	fields["manifest_entries"] = entries
	fields["result"] = "ok"
	logger.WithFields(fields).Info("配置校验通过")
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("site-router", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 SITE_ROUTER_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("SITE_ROUTER_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// startHTTPServer 监听端口直到 ctx 结束，随后在 ShutdownTimeout 内优雅关闭。
func startHTTPServer(ctx context.Context, cfg *config.Config, registry *server.SiteRegistry, cache edgecache.Cache, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Registry:     registry,
		Handler:      server.NewHandler(logger),
		ListenPort:   port,
		ReadTimeout:  cfg.Global.ReadTimeout.DurationValue(),
		WriteTimeout: cfg.Global.WriteTimeout.DurationValue(),
		IdleTimeout:  cfg.Global.IdleTimeout.DurationValue(),
		Diagnostics:  cfg.Global.EnableDiagnostics,
	})
	if err != nil {
		return err
	}
	if cfg.Global.EnableDiagnostics {
		routes.RegisterSiteRoutes(app, registry, routes.CacheInfo{
			Backend: cfg.Global.CacheBackend,
			Cache:   cache,
		})
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.Global.ShutdownTimeout.DurationValue()
	logger.WithFields(logrus.Fields{
		"action":  "shutdown",
		"timeout": timeout.String(),
	}).Info("收到退出信号，开始优雅关闭")
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func closeCache(cache edgecache.Cache, logger *logrus.Logger) {
	if err := cache.Close(); err != nil {
		logger.WithFields(logrus.Fields{
			"action": "shutdown",
			"error":  err.Error(),
		}).Warn("关闭边缘缓存失败")
	}
}
