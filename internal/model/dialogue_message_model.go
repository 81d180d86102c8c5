package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DialogueMessage struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role      string         `gorm:"type:varchar(50);not null"`
	Content   string         `gorm:"type:text;not null"`
	Files     datatypes.JSON `gorm:"type:jsonb"` // NULL when the message has no attachments
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (DialogueMessage) TableName() string {
	return "dialogue_messages"
}
