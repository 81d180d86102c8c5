package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UsageRecord struct {
	Key        string         `gorm:"type:varchar(100);primaryKey"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Count      int            `gorm:"not null;default:0"`
	SessionIds datatypes.JSON `gorm:"type:jsonb"`
	LastUsedAt time.Time      `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
