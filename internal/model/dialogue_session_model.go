package model

import (
	"time"

	"github.com/google/uuid"
)

// DialogueSession has no DeletedAt on purpose: deletion is a hard delete
// that cascades to messages, and a deleted session must not be appendable.
type DialogueSession struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId            uuid.UUID `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"type:varchar(255);not null"`
	Category          string    `gorm:"type:varchar(50);not null"`
	Problem           string    `gorm:"type:text;not null"`
	Attempts          string    `gorm:"type:text"`
	Goal              string    `gorm:"type:text"`
	Depth             int       `gorm:"not null"`
	CurrentStep       int       `gorm:"not null;default:0"`
	ChatMode          string    `gorm:"type:varchar(20);not null"`
	IsResolved        bool      `gorm:"not null;default:false"`
	FinalAnswer       *string   `gorm:"type:text"`
	HasAttachments    bool      `gorm:"not null;default:false"`
	NeedsVerification bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (DialogueSession) TableName() string {
	return "dialogue_sessions"
}
