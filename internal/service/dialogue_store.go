package service

import (
	"context"
	"errors"
	"time"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/repository/specification"
	"guided-dialogue-be/internal/repository/unitofwork"
	"guided-dialogue-be/pkg/dialogue"
	"guided-dialogue-be/pkg/quota"

	"github.com/google/uuid"
)

// gormSessionStore adapts the repository layer to the engine's SessionStore.
type gormSessionStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewSessionStore(uowFactory unitofwork.RepositoryFactory) dialogue.SessionStore {
	return &gormSessionStore{uowFactory: uowFactory}
}

func (s *gormSessionStore) Create(ctx context.Context, session *dialogue.Session) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	e := sessionToEntity(session)
	if err := uow.DialogueSessionRepository().Create(ctx, e); err != nil {
		return err
	}
	session.CreatedAt = e.CreatedAt
	session.UpdatedAt = e.UpdatedAt
	return nil
}

func (s *gormSessionStore) Get(ctx context.Context, userID, sessionID uuid.UUID) (*dialogue.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	e, err := uow.DialogueSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionID},
		specification.ByUserID{UserID: userID},
	)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}

	msgs, err := uow.DialogueMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	return sessionToDomain(e, msgs), nil
}

func (s *gormSessionStore) List(ctx context.Context, userID uuid.UUID) ([]*dialogue.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.DialogueSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dialogue.Session, len(sessions))
	for i, e := range sessions {
		out[i] = sessionToDomain(e, nil)
	}
	return out, nil
}

func (s *gormSessionStore) AppendAssistant(ctx context.Context, sessionID uuid.UUID, msg *dialogue.Message) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.DialogueMessageRepository().Create(ctx, messageToEntity(sessionID, msg)); err != nil {
		return err
	}
	return uow.DialogueSessionRepository().UpdateFields(ctx, sessionID, map[string]interface{}{
		"updated_at": time.Now(),
	})
}

// AppendTurn commits both messages and the step increment in one transaction.
func (s *gormSessionStore) AppendTurn(ctx context.Context, sessionID uuid.UUID, user, assistant *dialogue.Message) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := uow.DialogueMessageRepository().Create(ctx, messageToEntity(sessionID, user)); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.DialogueMessageRepository().Create(ctx, messageToEntity(sessionID, assistant)); err != nil {
		_ = uow.Rollback()
		return err
	}

	rows, err := uow.DialogueSessionRepository().IncrementStep(ctx, sessionID)
	if err != nil {
		_ = uow.Rollback()
		return err
	}
	if rows == 0 {
		// The session vanished under us; do not resurrect it via its messages.
		_ = uow.Rollback()
		return errors.New("session no longer exists")
	}

	return uow.Commit()
}

func (s *gormSessionStore) UpdateTitle(ctx context.Context, sessionID uuid.UUID, title string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DialogueSessionRepository().UpdateFields(ctx, sessionID, map[string]interface{}{
		"title": title,
	})
}

func (s *gormSessionStore) UpdateProblem(ctx context.Context, sessionID uuid.UUID, problem string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DialogueSessionRepository().UpdateFields(ctx, sessionID, map[string]interface{}{
		"problem": problem,
	})
}

func (s *gormSessionStore) MarkNeedsVerification(ctx context.Context, sessionID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DialogueSessionRepository().UpdateFields(ctx, sessionID, map[string]interface{}{
		"needs_verification": true,
	})
}

func (s *gormSessionStore) Resolve(ctx context.Context, sessionID uuid.UUID, finalAnswer string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	e, err := uow.DialogueSessionRepository().FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return err
	}
	if e == nil {
		return errors.New("session no longer exists")
	}
	if e.IsResolved {
		// Keep the first answer.
		return nil
	}

	return uow.DialogueSessionRepository().UpdateFields(ctx, sessionID, map[string]interface{}{
		"is_resolved":  true,
		"final_answer": finalAnswer,
	})
}

func (s *gormSessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.DialogueMessageRepository().DeleteAllBySessionId(ctx, sessionID); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.DialogueSessionRepository().Delete(ctx, sessionID); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

// gormUsageStore adapts the usage repository to the quota tracker.
type gormUsageStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUsageStore(uowFactory unitofwork.RepositoryFactory) quota.UsageStore {
	return &gormUsageStore{uowFactory: uowFactory}
}

func (s *gormUsageStore) ConsumeIfBelow(ctx context.Context, key string, userId, sessionId uuid.UUID, limit int) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UsageRepository().ConsumeIfBelow(ctx, key, userId, sessionId, limit)
}

func (s *gormUsageStore) Count(ctx context.Context, key string) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UsageRepository().CountForKey(ctx, key)
}

// ---- entity <-> domain conversion ----

func sessionToEntity(d *dialogue.Session) *entity.DialogueSession {
	var finalAnswer *string
	if d.FinalAnswer != "" {
		v := d.FinalAnswer
		finalAnswer = &v
	}
	return &entity.DialogueSession{
		Id:                d.ID,
		UserId:            d.UserID,
		Title:             d.Title,
		Category:          string(d.Category),
		Problem:           d.Problem,
		Attempts:          d.Attempts,
		Goal:              d.Goal,
		Depth:             d.Depth,
		CurrentStep:       d.CurrentStep,
		ChatMode:          string(d.ChatMode),
		IsResolved:        d.IsResolved,
		FinalAnswer:       finalAnswer,
		HasAttachments:    d.HasAttachments,
		NeedsVerification: d.NeedsVerification,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func sessionToDomain(e *entity.DialogueSession, msgs []*entity.DialogueMessage) *dialogue.Session {
	finalAnswer := ""
	if e.FinalAnswer != nil {
		finalAnswer = *e.FinalAnswer
	}
	d := &dialogue.Session{
		ID:                e.Id,
		UserID:            e.UserId,
		Title:             e.Title,
		Category:          dialogue.Category(e.Category),
		Problem:           e.Problem,
		Attempts:          e.Attempts,
		Goal:              e.Goal,
		Depth:             e.Depth,
		CurrentStep:       e.CurrentStep,
		ChatMode:          dialogue.ChatMode(e.ChatMode),
		IsResolved:        e.IsResolved,
		FinalAnswer:       finalAnswer,
		HasAttachments:    e.HasAttachments,
		NeedsVerification: e.NeedsVerification,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	for _, m := range msgs {
		d.Messages = append(d.Messages, messageToDomain(m))
	}
	return d
}

func messageToEntity(sessionID uuid.UUID, m *dialogue.Message) *entity.DialogueMessage {
	var files []entity.FileRef
	for _, f := range m.Files {
		files = append(files, entity.FileRef{
			Name:      f.Name,
			MediaType: f.MediaType,
			Size:      f.Size,
			URL:       f.URL,
		})
	}
	return &entity.DialogueMessage{
		Id:        m.ID,
		SessionId: sessionID,
		Role:      m.Role,
		Content:   m.Content,
		Files:     files,
		CreatedAt: m.CreatedAt,
	}
}

func messageToDomain(e *entity.DialogueMessage) dialogue.Message {
	var files []dialogue.Attachment
	for _, f := range e.Files {
		files = append(files, dialogue.Attachment{
			Name:      f.Name,
			MediaType: f.MediaType,
			Size:      f.Size,
			URL:       f.URL,
		})
	}
	return dialogue.Message{
		ID:        e.Id,
		Role:      e.Role,
		Content:   e.Content,
		Files:     files,
		CreatedAt: e.CreatedAt,
	}
}
