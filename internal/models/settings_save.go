package models

import (
	"time"

	"gorm.io/datatypes"
)

// SettingsSave records one attempt to save roadmap settings for a shop.
type SettingsSave struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Shop      string         `gorm:"type:varchar(255);not null;index:idx_settings_saves_shop_created,priority:1" json:"shop"`
	RoadmapID string         `gorm:"type:varchar(255)" json:"roadmap_id"`
	IframeURL string         `gorm:"type:text" json:"iframe_url,omitempty"`
	Status    string         `gorm:"type:varchar(16);not null" json:"status"` // success or error.
	Message   string         `gorm:"type:text" json:"message"`
	Payload   datatypes.JSON `json:"payload,omitempty"` // Metafield value that was sent, when one was built.
	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index:idx_settings_saves_shop_created,priority:2" json:"created_at"`
}
