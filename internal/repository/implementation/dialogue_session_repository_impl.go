package implementation

import (
	"context"
	"errors"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/mapper"
	"guided-dialogue-be/internal/model"
	"guided-dialogue-be/internal/repository/contract"
	"guided-dialogue-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DialogueSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DialogueMapper
}

func NewDialogueSessionRepository(db *gorm.DB) contract.DialogueSessionRepository {
	return &DialogueSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewDialogueMapper(),
	}
}

func (r *DialogueSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DialogueSessionRepositoryImpl) Create(ctx context.Context, session *entity.DialogueSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *DialogueSessionRepositoryImpl) Update(ctx context.Context, session *entity.DialogueSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *DialogueSessionRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.DialogueSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *DialogueSessionRepositoryImpl) IncrementStep(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.DialogueSession{}).
		Where("id = ?", id).
		Update("current_step", gorm.Expr("current_step + 1"))
	return result.RowsAffected, result.Error
}

func (r *DialogueSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DialogueSession{}, id).Error
}

func (r *DialogueSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DialogueSession, error) {
	var m model.DialogueSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *DialogueSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DialogueSession, error) {
	var models []*model.DialogueSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.SessionsToEntities(models), nil
}
