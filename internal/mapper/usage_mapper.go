package mapper

import (
	"encoding/json"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UsageMapper struct{}

func NewUsageMapper() *UsageMapper {
	return &UsageMapper{}
}

func (m *UsageMapper) ToEntity(r *model.UsageRecord) *entity.UsageRecord {
	if r == nil {
		return nil
	}
	var ids []uuid.UUID
	if len(r.SessionIds) > 0 {
		_ = json.Unmarshal(r.SessionIds, &ids)
	}
	return &entity.UsageRecord{
		Key:        r.Key,
		UserId:     r.UserId,
		Count:      r.Count,
		SessionIds: ids,
		LastUsedAt: r.LastUsedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (m *UsageMapper) ToModel(r *entity.UsageRecord) *model.UsageRecord {
	if r == nil {
		return nil
	}
	var ids datatypes.JSON
	if len(r.SessionIds) > 0 {
		if data, err := json.Marshal(r.SessionIds); err == nil {
			ids = data
		}
	}
	return &model.UsageRecord{
		Key:        r.Key,
		UserId:     r.UserId,
		Count:      r.Count,
		SessionIds: ids,
		LastUsedAt: r.LastUsedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
