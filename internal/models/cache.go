package models

import (
	"time"

	"gorm.io/datatypes"
)

// StatCacheEntry is the persisted form of a PlayerPayload. An entry is only
// readable while `now - UpdatedAt < TTL` and Version matches the store's
// current version; anything else is a logical miss.
type StatCacheEntry struct {
	PlayerID  int            `gorm:"primaryKey" json:"player_id"`
	Payload   datatypes.JSON `gorm:"not null" json:"payload"`
	Version   int            `gorm:"not null;index" json:"version"`
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`
}

func (StatCacheEntry) TableName() string {
	return "stat_cache_entries"
}
