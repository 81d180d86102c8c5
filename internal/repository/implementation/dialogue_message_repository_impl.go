package implementation

import (
	"context"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/mapper"
	"guided-dialogue-be/internal/model"
	"guided-dialogue-be/internal/repository/contract"
	"guided-dialogue-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DialogueMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DialogueMapper
}

func NewDialogueMessageRepository(db *gorm.DB) contract.DialogueMessageRepository {
	return &DialogueMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewDialogueMapper(),
	}
}

func (r *DialogueMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DialogueMessageRepositoryImpl) Create(ctx context.Context, message *entity.DialogueMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *DialogueMessageRepositoryImpl) DeleteAllBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.DialogueMessage{}).Error
}

func (r *DialogueMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DialogueMessage, error) {
	var models []*model.DialogueMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}
