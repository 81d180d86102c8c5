package service

import (
	"context"

	"guided-dialogue-be/internal/dto"
	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/pkg/logger"
	"guided-dialogue-be/internal/repository/specification"
	"guided-dialogue-be/internal/repository/unitofwork"
	"guided-dialogue-be/pkg/dialogue"
	"guided-dialogue-be/pkg/events"
	"guided-dialogue-be/pkg/quota"

	"github.com/google/uuid"
)

// EventPublisher is the bus side the service needs. The NATS publisher
// satisfies it; tests use a recording stub.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IDialogueService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest, files []dialogue.Attachment) (*dto.SessionDetailResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error)
	GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	SubmitTurn(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SubmitTurnRequest, files []dialogue.Attachment) (*dto.TurnResponse, error)
	ConfirmProblem(ctx context.Context, userId, sessionId uuid.UUID) (*dto.TurnResponse, error)
	EditProblem(ctx context.Context, userId, sessionId uuid.UUID, req *dto.EditProblemRequest) (*dto.TurnResponse, error)
	ViewFinalAnswer(ctx context.Context, userId, sessionId uuid.UUID) (*dto.FinalAnswerResponse, error)
	DismissEarlyComplete(ctx context.Context, userId, sessionId uuid.UUID) error
	RenameSession(ctx context.Context, userId, sessionId uuid.UUID, req *dto.RenameSessionRequest) error
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	GetUsage(ctx context.Context, userId uuid.UUID) (*dto.UsageResponse, error)
}

type dialogueService struct {
	engine     *dialogue.Engine
	store      dialogue.SessionStore
	tracker    *quota.Tracker
	uowFactory unitofwork.RepositoryFactory
	publisher  EventPublisher
	logger     logger.ILogger
}

func NewDialogueService(
	engine *dialogue.Engine,
	store dialogue.SessionStore,
	tracker *quota.Tracker,
	uowFactory unitofwork.RepositoryFactory,
	publisher EventPublisher,
	log logger.ILogger,
) IDialogueService {
	return &dialogueService{
		engine:     engine,
		store:      store,
		tracker:    tracker,
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *dialogueService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest, files []dialogue.Attachment) (*dto.SessionDetailResponse, error) {
	user := s.loadUser(ctx, userId)
	uc := userContextOf(userId, user)

	mode := dialogue.ChatMode(req.ChatMode)
	if mode == "" {
		mode = dialogue.ModeSocratic
		if user != nil && user.DefaultChatMode != "" {
			mode = dialogue.ChatMode(user.DefaultChatMode)
		}
	}

	form := dialogue.CreateForm{
		Category: dialogue.Category(req.Category),
		Problem:  req.Problem,
		Attempts: req.Attempts,
		Goal:     req.Goal,
		Files:    files,
	}

	session, err := s.engine.CreateSession(ctx, uc, form, req.Depth, mode)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSessionCreated(session.ID.String(), userId.String(), session.Title))
	if session.IsResolved {
		s.publish(ctx, events.NewSessionResolved(session.ID.String(), userId.String()))
	}

	return s.detailOf(session), nil
}

func (s *dialogueService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error) {
	sessions, err := s.engine.ListSessions(ctx, dialogue.UserContext{UserID: userId})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SessionSummaryResponse, len(sessions))
	for i, session := range sessions {
		summary := s.summaryOf(session)
		out[i] = &summary
	}
	return out, nil
}

func (s *dialogueService) GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	session, err := s.engine.GetSession(ctx, dialogue.UserContext{UserID: userId}, sessionId)
	if err != nil {
		return nil, err
	}
	return s.detailOf(session), nil
}

func (s *dialogueService) SubmitTurn(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SubmitTurnRequest, files []dialogue.Attachment) (*dto.TurnResponse, error) {
	uc := s.userContext(ctx, userId)

	session, err := s.engine.SubmitTurn(ctx, uc, sessionId, req.Content, files)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSessionUpdated(sessionId.String(), userId.String(), session.CurrentStep))
	return s.turnResponseOf(session), nil
}

func (s *dialogueService) ConfirmProblem(ctx context.Context, userId, sessionId uuid.UUID) (*dto.TurnResponse, error) {
	uc := s.userContext(ctx, userId)

	session, err := s.engine.ConfirmProblem(ctx, uc, sessionId)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSessionUpdated(sessionId.String(), userId.String(), session.CurrentStep))
	return s.turnResponseOf(session), nil
}

func (s *dialogueService) EditProblem(ctx context.Context, userId, sessionId uuid.UUID, req *dto.EditProblemRequest) (*dto.TurnResponse, error) {
	uc := s.userContext(ctx, userId)

	session, err := s.engine.EditProblem(ctx, uc, sessionId, req.Problem)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSessionUpdated(sessionId.String(), userId.String(), session.CurrentStep))
	return s.turnResponseOf(session), nil
}

func (s *dialogueService) ViewFinalAnswer(ctx context.Context, userId, sessionId uuid.UUID) (*dto.FinalAnswerResponse, error) {
	uc := s.userContext(ctx, userId)

	answer, err := s.engine.ViewFinalAnswer(ctx, uc, sessionId)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSessionResolved(sessionId.String(), userId.String()))
	return &dto.FinalAnswerResponse{
		SessionId:   sessionId,
		FinalAnswer: answer,
	}, nil
}

func (s *dialogueService) DismissEarlyComplete(ctx context.Context, userId, sessionId uuid.UUID) error {
	return s.engine.DismissEarlyComplete(ctx, dialogue.UserContext{UserID: userId}, sessionId)
}

func (s *dialogueService) RenameSession(ctx context.Context, userId, sessionId uuid.UUID, req *dto.RenameSessionRequest) error {
	// Ownership check goes through the engine; the rename itself is a
	// plain store update, no model involvement.
	if _, err := s.engine.GetSession(ctx, dialogue.UserContext{UserID: userId}, sessionId); err != nil {
		return err
	}
	if err := s.store.UpdateTitle(ctx, sessionId, req.Title); err != nil {
		return err
	}
	s.publish(ctx, events.NewSessionUpdated(sessionId.String(), userId.String(), 0))
	return nil
}

func (s *dialogueService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	if err := s.engine.DeleteSession(ctx, dialogue.UserContext{UserID: userId}, sessionId); err != nil {
		return err
	}
	s.publish(ctx, events.NewSessionDeleted(sessionId.String(), userId.String()))
	return nil
}

func (s *dialogueService) GetUsage(ctx context.Context, userId uuid.UUID) (*dto.UsageResponse, error) {
	remaining, err := s.engine.Remaining(ctx, dialogue.UserContext{UserID: userId})
	if err != nil {
		return nil, err
	}
	return &dto.UsageResponse{
		Limit:     s.tracker.Limit(),
		Remaining: remaining,
	}, nil
}

// userContext loads the user's language preference. A lookup failure falls
// back to Korean rather than blocking the operation.
func (s *dialogueService) userContext(ctx context.Context, userId uuid.UUID) dialogue.UserContext {
	return userContextOf(userId, s.loadUser(ctx, userId))
}

func userContextOf(userId uuid.UUID, user *entity.User) dialogue.UserContext {
	uc := dialogue.UserContext{UserID: userId, Language: dialogue.LanguageKorean}
	if user != nil && user.PreferredLanguage == string(dialogue.LanguageEnglish) {
		uc.Language = dialogue.LanguageEnglish
	}
	return uc
}

func (s *dialogueService) loadUser(ctx context.Context, userId uuid.UUID) *entity.User {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		s.logger.Warn("DIALOGUE", "Failed to load user preferences", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		return nil
	}
	return user
}

func (s *dialogueService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("DIALOGUE", "Failed to publish event", map[string]interface{}{
			"event_type": event.EventType(), "error": err.Error(),
		})
	}
}

// ---- DTO mapping ----

func (s *dialogueService) summaryOf(session *dialogue.Session) dto.SessionSummaryResponse {
	return dto.SessionSummaryResponse{
		Id:          session.ID,
		Title:       session.Title,
		Category:    string(session.Category),
		ChatMode:    string(session.ChatMode),
		Depth:       session.Depth,
		CurrentStep: session.CurrentStep,
		IsResolved:  session.IsResolved,
		State:       string(s.engine.State(session)),
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
}

func (s *dialogueService) detailOf(session *dialogue.Session) *dto.SessionDetailResponse {
	detail := &dto.SessionDetailResponse{
		SessionSummaryResponse: s.summaryOf(session),
		Problem:                session.Problem,
		Attempts:               session.Attempts,
		Goal:                   session.Goal,
		HasAttachments:         session.HasAttachments,
		Messages:               make([]dto.MessageResponse, len(session.Messages)),
	}
	for i, msg := range session.Messages {
		detail.Messages[i] = messageResponseOf(msg)
	}
	return detail
}

func (s *dialogueService) turnResponseOf(session *dialogue.Session) *dto.TurnResponse {
	resp := &dto.TurnResponse{Session: s.detailOf(session)}
	if n := len(session.Messages); n >= 2 {
		sent := messageResponseOf(session.Messages[n-2])
		reply := messageResponseOf(session.Messages[n-1])
		resp.Sent = &sent
		resp.Reply = &reply
	}
	return resp
}

func messageResponseOf(msg dialogue.Message) dto.MessageResponse {
	out := dto.MessageResponse{
		Id:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	for _, f := range msg.Files {
		out.Files = append(out.Files, dto.FileDTO{
			Name:      f.Name,
			MediaType: f.MediaType,
			Size:      f.Size,
			URL:       f.URL,
		})
	}
	return out
}
