// Package quota enforces the per-user daily session allowance.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"guided-dialogue-be/internal/pkg/logger"
	"guided-dialogue-be/pkg/dialogue"
)

// DefaultDailyLimit is the number of sessions a user may create per calendar
// day when no explicit limit is configured.
const DefaultDailyLimit = 2

// UsageStore persists daily usage counters. ConsumeIfBelow must be atomic
// under concurrent callers: of N simultaneous consumes against the same key,
// at most limit in total may ever succeed.
type UsageStore interface {
	// ConsumeIfBelow increments the counter for key by one and records the
	// session id, unless the counter already reached limit. Returns whether
	// the increment happened.
	ConsumeIfBelow(ctx context.Context, key string, userID, sessionID uuid.UUID, limit int) (bool, error)

	// Count returns the current counter for key; 0 when no record exists.
	Count(ctx context.Context, key string) (int, error)
}

// Tracker gates session creation against a daily counter keyed by user and
// calendar day. Days roll over in the configured location, not in UTC, so the
// allowance resets at the user-facing midnight.
type Tracker struct {
	store  UsageStore
	limit  int
	loc    *time.Location
	logger logger.ILogger

	now func() time.Time // test hook
}

var _ dialogue.QuotaTracker = &Tracker{}

func NewTracker(store UsageStore, limit int, loc *time.Location, log logger.ILogger) *Tracker {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{store: store, limit: limit, loc: loc, logger: log, now: time.Now}
}

// DayKey is the counter key for a user on the day containing t.
func (t *Tracker) DayKey(userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s_%s", userID, at.In(t.loc).Format("2006-01-02"))
}

// CheckAndConsume spends one use of today's allowance. A store failure denies
// the request: an unreadable counter is treated as an exhausted one.
func (t *Tracker) CheckAndConsume(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	key := t.DayKey(userID, t.now())

	ok, err := t.store.ConsumeIfBelow(ctx, key, userID, sessionID, t.limit)
	if err != nil {
		t.logger.Error("QUOTA", "Usage store unavailable, denying request", map[string]interface{}{
			"user_id": userID, "error": err.Error(),
		})
		return false, fmt.Errorf("%w: %v", dialogue.ErrQuotaUnavailable, err)
	}
	if !ok {
		t.logger.Info("QUOTA", "Daily limit reached", map[string]interface{}{
			"user_id": userID, "limit": t.limit,
		})
	}
	return ok, nil
}

// Remaining reports today's leftover allowance without consuming anything.
func (t *Tracker) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := t.store.Count(ctx, t.DayKey(userID, t.now()))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", dialogue.ErrQuotaUnavailable, err)
	}
	remaining := t.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int {
	return t.limit
}
