package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// StorageEntry is one widget storage key. JSON values (message log,
// booking state, activity stamps) live in the jsonb column; anything else,
// such as the raw session id, stays in Value.
type StorageEntry struct {
	Key       string         `gorm:"type:text;primaryKey"`
	Value     *string        `gorm:"type:text"`
	JSONValue datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (StorageEntry) TableName() string {
	return "widget_storage_entries"
}

func NewStorageEntry(key, value string) StorageEntry {
	if json.Valid([]byte(value)) {
		return StorageEntry{Key: key, JSONValue: datatypes.JSON(value)}
	}
	return StorageEntry{Key: key, Value: &value}
}

// Raw returns the stored value as the widget wrote it. jsonb may reformat
// whitespace and key order.
func (e StorageEntry) Raw() string {
	if len(e.JSONValue) > 0 {
		return string(e.JSONValue)
	}
	if e.Value != nil {
		return *e.Value
	}
	return ""
}
