package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/massiyousfi23-source/Emargement/config"
	"github.com/massiyousfi23-source/Emargement/internal/repository"
	"github.com/massiyousfi23-source/Emargement/pkg/database"
	"github.com/massiyousfi23-source/Emargement/pkg/redis"
)

// storeRetryInterval 持久化后端不可用时两次重连之间的最短间隔
const storeRetryInterval = 30 * time.Second

// newKVStore 按 store.driver 创建持久化存储，返回存储与关闭函数
//
// postgres / redis 按需连接：后端不可用时写入返回 ErrStoreUnavailable，
// 由 RosterStore 作为非致命警告上报，后端恢复后下一次写入自动补齐。
// sharedRedis 为启动时建立的连接（可为 nil），redis 驱动优先复用。
func newKVStore(cfg *config.Config, sharedRedis *redis.Client, logger *zap.Logger) (repository.KVStore, func()) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("使用内存存储，重启后数据将丢失")
		return repository.NewMemoryKV(), func() {}
	}

	var (
		mu       sync.Mutex
		db       *gorm.DB
		ownRedis *redis.Client
	)

	open := func(ctx context.Context) (repository.KVStore, error) {
		switch cfg.Store.Driver {
		case config.StoreDriverPostgres:
			gdb, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
			if err != nil {
				return nil, err
			}
			sqlDB, err := gdb.DB()
			if err != nil {
				return nil, err
			}
			if err := database.RunMigrations(sqlDB, logger); err != nil {
				sqlDB.Close()
				return nil, err
			}
			mu.Lock()
			db = gdb
			mu.Unlock()
			return repository.NewKVRepo(gdb), nil

		case config.StoreDriverRedis:
			if sharedRedis != nil {
				return repository.NewRedisKV(sharedRedis), nil
			}
			client, err := redis.NewClient(&cfg.Redis, logger)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			ownRedis = client
			mu.Unlock()
			return repository.NewRedisKV(client), nil

		default:
			return nil, fmt.Errorf("未知的存储驱动 %q", cfg.Store.Driver)
		}
	}

	closeFn := func() {
		mu.Lock()
		defer mu.Unlock()
		if db != nil {
			if sqlDB, _ := db.DB(); sqlDB != nil {
				sqlDB.Close()
			}
		}
		if ownRedis != nil {
			ownRedis.Close()
		}
	}

	return repository.NewLazyKV(open, storeRetryInterval, logger), closeFn
}
