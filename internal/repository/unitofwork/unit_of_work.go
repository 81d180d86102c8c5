package unitofwork

import (
	"context"

	"guided-dialogue-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DialogueSessionRepository() contract.DialogueSessionRepository
	DialogueMessageRepository() contract.DialogueMessageRepository
	UsageRepository() contract.UsageRepository
}
