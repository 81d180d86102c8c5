package contract

import (
	"context"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DialogueSessionRepository interface {
	Create(ctx context.Context, session *entity.DialogueSession) error
	Update(ctx context.Context, session *entity.DialogueSession) error

	// UpdateFields patches the named columns only.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// IncrementStep bumps current_step by one. Returns the number of rows
	// touched so callers can detect a vanished session.
	IncrementStep(ctx context.Context, id uuid.UUID) (int64, error)

	// Delete removes the row permanently.
	Delete(ctx context.Context, id uuid.UUID) error

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DialogueSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DialogueSession, error)
}
