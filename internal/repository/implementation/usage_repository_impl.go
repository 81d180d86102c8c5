package implementation

import (
	"context"
	"errors"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/mapper"
	"guided-dialogue-be/internal/model"
	"guided-dialogue-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UsageMapper
}

func NewUsageRepository(db *gorm.DB) contract.UsageRepository {
	return &UsageRepositoryImpl{
		db:     db,
		mapper: mapper.NewUsageMapper(),
	}
}

// consumeQuery does the whole check-and-increment in one statement so that
// concurrent consumers can never push the counter past the limit. The WHERE
// on the conflict arm makes an at-limit row update zero rows.
const consumeQuery = `
INSERT INTO usage_records ("key", user_id, count, session_ids, last_used_at, created_at, updated_at)
VALUES (?, ?, 1, jsonb_build_array(?::text), NOW(), NOW(), NOW())
ON CONFLICT ("key") DO UPDATE
SET count        = usage_records.count + 1,
    session_ids  = COALESCE(usage_records.session_ids, '[]'::jsonb) || to_jsonb(?::text),
    last_used_at = NOW(),
    updated_at   = NOW()
WHERE usage_records.count < ?`

func (r *UsageRepositoryImpl) ConsumeIfBelow(ctx context.Context, key string, userId, sessionId uuid.UUID, limit int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(consumeQuery,
		key, userId, sessionId.String(), sessionId.String(), limit)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *UsageRepositoryImpl) CountForKey(ctx context.Context, key string) (int, error) {
	var m model.UsageRecord
	err := r.db.WithContext(ctx).Where(`"key" = ?`, key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return m.Count, nil
}

func (r *UsageRepositoryImpl) FindByKey(ctx context.Context, key string) (*entity.UsageRecord, error) {
	var m model.UsageRecord
	err := r.db.WithContext(ctx).Where(`"key" = ?`, key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
