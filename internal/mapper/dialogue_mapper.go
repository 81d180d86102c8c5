package mapper

import (
	"encoding/json"

	"guided-dialogue-be/internal/entity"
	"guided-dialogue-be/internal/model"

	"gorm.io/datatypes"
)

type DialogueMapper struct{}

func NewDialogueMapper() *DialogueMapper {
	return &DialogueMapper{}
}

func (m *DialogueMapper) SessionToEntity(s *model.DialogueSession) *entity.DialogueSession {
	if s == nil {
		return nil
	}
	return &entity.DialogueSession{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		Category:          s.Category,
		Problem:           s.Problem,
		Attempts:          s.Attempts,
		Goal:              s.Goal,
		Depth:             s.Depth,
		CurrentStep:       s.CurrentStep,
		ChatMode:          s.ChatMode,
		IsResolved:        s.IsResolved,
		FinalAnswer:       s.FinalAnswer,
		HasAttachments:    s.HasAttachments,
		NeedsVerification: s.NeedsVerification,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (m *DialogueMapper) SessionToModel(s *entity.DialogueSession) *model.DialogueSession {
	if s == nil {
		return nil
	}
	return &model.DialogueSession{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		Category:          s.Category,
		Problem:           s.Problem,
		Attempts:          s.Attempts,
		Goal:              s.Goal,
		Depth:             s.Depth,
		CurrentStep:       s.CurrentStep,
		ChatMode:          s.ChatMode,
		IsResolved:        s.IsResolved,
		FinalAnswer:       s.FinalAnswer,
		HasAttachments:    s.HasAttachments,
		NeedsVerification: s.NeedsVerification,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (m *DialogueMapper) SessionsToEntities(models []*model.DialogueSession) []*entity.DialogueSession {
	entities := make([]*entity.DialogueSession, len(models))
	for i, s := range models {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

func (m *DialogueMapper) MessageToEntity(msg *model.DialogueMessage) *entity.DialogueMessage {
	if msg == nil {
		return nil
	}
	var files []entity.FileRef
	if len(msg.Files) > 0 {
		// Corrupt rows degrade to a message without attachments.
		_ = json.Unmarshal(msg.Files, &files)
	}
	return &entity.DialogueMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Files:     files,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *DialogueMapper) MessageToModel(msg *entity.DialogueMessage) *model.DialogueMessage {
	if msg == nil {
		return nil
	}
	var files datatypes.JSON
	if len(msg.Files) > 0 {
		if data, err := json.Marshal(msg.Files); err == nil {
			files = data
		}
	}
	return &model.DialogueMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Files:     files,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *DialogueMapper) MessagesToEntities(models []*model.DialogueMessage) []*entity.DialogueMessage {
	entities := make([]*entity.DialogueMessage, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
