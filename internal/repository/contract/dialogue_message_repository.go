package contract

import (
	"context"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DialogueMessageRepository interface {
	Create(ctx context.Context, message *entity.DialogueMessage) error
	DeleteAllBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DialogueMessage, error)
}
