package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "github.com/massiyousfi23-source/Emargement/pkg/errors"
)

// KVOpener 打开持久化后端；由启动流程按 store.driver 提供
type KVOpener func(ctx context.Context) (KVStore, error)

// lazyKV 按需连接的 KVStore
//
// 后端不可用时 Get/Set 返回包装 ErrStoreUnavailable 的错误，而不是静默丢弃写入；
// 两次连接尝试之间至少间隔 retryInterval。连接成功后一直复用。
type lazyKV struct {
	mu            sync.Mutex
	open          KVOpener
	inner         KVStore
	retryInterval time.Duration
	nextAttempt   time.Time
	now           func() time.Time
	logger        *zap.Logger
}

// NewLazyKV 创建按需连接的 KVStore。创建时不连接，首次 Get/Set 时尝试。
func NewLazyKV(open KVOpener, retryInterval time.Duration, logger *zap.Logger) KVStore {
	return &lazyKV{
		open:          open,
		retryInterval: retryInterval,
		now:           time.Now,
		logger:        logger,
	}
}

func (l *lazyKV) Get(ctx context.Context, key string) (string, bool, error) {
	store, err := l.store(ctx)
	if err != nil {
		return "", false, err
	}
	return store.Get(ctx, key)
}

func (l *lazyKV) Set(ctx context.Context, key, value string) error {
	store, err := l.store(ctx)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, value)
}

func (l *lazyKV) store(ctx context.Context) (KVStore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inner != nil {
		return l.inner, nil
	}
	if l.now().Before(l.nextAttempt) {
		return nil, pkgerrors.ErrStoreUnavailable
	}

	store, err := l.open(ctx)
	if err != nil {
		l.nextAttempt = l.now().Add(l.retryInterval)
		l.logger.Warn("持久化存储连接失败", zap.Duration("retry_in", l.retryInterval), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
	}

	l.inner = store
	l.logger.Info("持久化存储已连接")
	return store, nil
}
