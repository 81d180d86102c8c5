package dto

import (
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	FullName          string `json:"full_name" validate:"required"`
	PreferredLanguage string `json:"preferred_language" validate:"omitempty,oneof=ko en"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserProfileResponse struct {
	Id                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	PreferredLanguage string    `json:"preferred_language"`
	DefaultChatMode   string    `json:"default_chat_mode"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  UserProfileResponse `json:"user"`
}

type UpdatePreferencesRequest struct {
	PreferredLanguage string `json:"preferred_language" validate:"omitempty,oneof=ko en"`
	DefaultChatMode   string `json:"default_chat_mode" validate:"omitempty,oneof=socratic direct"`
}
