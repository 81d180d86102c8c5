package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id                uuid.UUID
	Email             string
	PasswordHash      *string
	FullName          string
	PreferredLanguage string // "ko" or "en"
	DefaultChatMode   string // preselected mode for new sessions
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
