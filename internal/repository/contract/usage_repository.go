package contract

import (
	"context"

	"guided-dialogue-be/internal/entity"

	"github.com/google/uuid"
)

type UsageRepository interface {
	// ConsumeIfBelow atomically increments the counter for key unless it
	// already reached limit, creating the row on first use. Returns whether
	// the increment happened. Safe under concurrent callers.
	ConsumeIfBelow(ctx context.Context, key string, userId, sessionId uuid.UUID, limit int) (bool, error)

	// CountForKey returns the counter for key, 0 when absent.
	CountForKey(ctx context.Context, key string) (int, error)

	FindByKey(ctx context.Context, key string) (*entity.UsageRecord, error)
}
