package repository

import (
	"context"
	"sync"
)

// KVStore 持久化键值存储接口
// 点名册仅使用两个固定键：成员列表与当前项目 ID
type KVStore interface {
	// Get 读取键值；键不存在时 found=false 且 err=nil
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set 写入键值（覆盖）
	Set(ctx context.Context, key, value string) error
}

// ── 内存实现 ──

type memoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV 创建进程内 KVStore，用于测试以及持久化后端不可用时的降级运行
func NewMemoryKV() KVStore {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
