package errors

import "errors"

// ErrStoreUnavailable 持久化后端不可用（启动时降级为内存存储）
var ErrStoreUnavailable = errors.New("持久化存储不可用")
