package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/massiyousfi23-source/Emargement/config"
	"github.com/massiyousfi23-source/Emargement/internal/api/handler"
	"github.com/massiyousfi23-source/Emargement/internal/api/router"
	"github.com/massiyousfi23-source/Emargement/internal/model"
	"github.com/massiyousfi23-source/Emargement/internal/repository"
	"github.com/massiyousfi23-source/Emargement/internal/service"
	"github.com/massiyousfi23-source/Emargement/pkg/jwt"
	applogger "github.com/massiyousfi23-source/Emargement/pkg/logger"
	"github.com/massiyousfi23-source/Emargement/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("EMARGEMENT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，登录限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 4. 持久化存储（按需连接；不可用时写入以警告形式上报，内存状态仍然有效）
	kv, closeStore := newKVStore(cfg, rdb, logger)

	// 5. 依赖注入: Repository → RosterStore → Service → Handler
	repo := repository.NewRepository(kv, repository.NewProjectCatalogFromConfig(&cfg.Roster))

	var seed []model.Member
	if cfg.Roster.Seed {
		seed = model.SeedMembers()
	}
	roster := service.NewRosterStore(repo, service.StorageKeys{
		Members: cfg.Store.MembersKey,
		Project: cfg.Store.ProjectKey,
	}, seed, logger)

	hydrateCtx, hydrateCancel := context.WithTimeout(context.Background(), 10*time.Second)
	roster.Hydrate(hydrateCtx)
	hydrateCancel()

	// 6. 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewRosterMetrics(registry)
	metrics.Observe(roster.Snapshot())
	roster.Subscribe(metrics.Observe)

	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, roster, jwtMgr, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, registry, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 最后一次写入，补上之前失败的持久化
	if err := roster.Persist(ctx); err != nil {
		logger.Warn("关闭前持久化失败", zap.Error(err))
	}

	closeStore()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
