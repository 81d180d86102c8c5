package entity

import (
	"time"

	"github.com/google/uuid"
)

type DialogueSession struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	Title             string
	Category          string
	Problem           string
	Attempts          string
	Goal              string
	Depth             int
	CurrentStep       int
	ChatMode          string
	IsResolved        bool
	FinalAnswer       *string
	HasAttachments    bool
	NeedsVerification bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type DialogueMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Content   string
	Files     []FileRef
	CreatedAt time.Time
}

// FileRef describes one stored attachment of a message. The raw bytes are
// only held in memory for the model call; what persists is this reference.
type FileRef struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
}
