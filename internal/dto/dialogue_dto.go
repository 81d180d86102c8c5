package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Category string `json:"category" form:"category" validate:"required"`
	Problem  string `json:"problem" form:"problem" validate:"required"`
	Attempts string `json:"attempts" form:"attempts"`
	Goal     string `json:"goal" form:"goal"`
	Depth    int    `json:"depth" form:"depth" validate:"required,min=3,max=10"`
	// Empty falls back to the user's stored default mode.
	ChatMode string `json:"chat_mode" form:"chat_mode" validate:"omitempty,oneof=socratic direct"`
}

type SubmitTurnRequest struct {
	Content string `json:"content" form:"content" validate:"required"`
}

type EditProblemRequest struct {
	Problem string `json:"problem" validate:"required"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type FileDTO struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	URL       string `json:"url,omitempty"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Files     []FileDTO `json:"files,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionSummaryResponse struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	ChatMode    string    `json:"chat_mode"`
	Depth       int       `json:"depth"`
	CurrentStep int       `json:"current_step"`
	IsResolved  bool      `json:"is_resolved"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SessionDetailResponse struct {
	SessionSummaryResponse
	Problem        string            `json:"problem"`
	Attempts       string            `json:"attempts,omitempty"`
	Goal           string            `json:"goal,omitempty"`
	HasAttachments bool              `json:"has_attachments"`
	Messages       []MessageResponse `json:"messages"`
}

type TurnResponse struct {
	Session *SessionDetailResponse `json:"session"`
	Sent    *MessageResponse       `json:"sent"`
	Reply   *MessageResponse       `json:"reply"`
}

type FinalAnswerResponse struct {
	SessionId   uuid.UUID `json:"session_id"`
	FinalAnswer string    `json:"final_answer"`
}

type UsageResponse struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}
