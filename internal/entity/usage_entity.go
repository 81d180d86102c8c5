package entity

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one user's counter for one calendar day. Key is
// "<user id>_<YYYY-MM-DD>"; SessionIds lists the sessions that consumed.
type UsageRecord struct {
	Key        string
	UserId     uuid.UUID
	Count      int
	SessionIds []uuid.UUID
	LastUsedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
