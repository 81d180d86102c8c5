package serverutils

import (
	"errors"
	"testing"

	"guided-dialogue-be/pkg/dialogue"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"quota exceeded", dialogue.ErrQuotaExceeded, fiber.StatusTooManyRequests},
		{"quota unavailable", dialogue.ErrQuotaUnavailable, fiber.StatusServiceUnavailable},
		{"session not found", dialogue.ErrSessionNotFound, fiber.StatusNotFound},
		{"session resolved", dialogue.ErrSessionResolved, fiber.StatusConflict},
		{"turn in flight", dialogue.ErrTurnInFlight, fiber.StatusConflict},
		{"turn not allowed", dialogue.ErrTurnNotAllowed, fiber.StatusConflict},
		{"invalid depth", dialogue.ErrInvalidDepth, fiber.StatusBadRequest},
		{"empty problem", dialogue.ErrEmptyProblem, fiber.StatusBadRequest},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := classify(tt.err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestClassifyWrappedErrors(t *testing.T) {
	code, _ := classify(fiber.NewError(fiber.StatusTeapot, "short and stout"))
	assert.Equal(t, fiber.StatusTeapot, code)

	code, msg := classify(&dialogue.LLMError{Err: errors.New("upstream timeout")})
	assert.Equal(t, fiber.StatusBadGateway, code)
	assert.NotContains(t, msg, "upstream timeout") // provider details stay out of responses

	code, _ = classify(&dialogue.StoreError{Op: "append", Err: errors.New("pq: down")})
	assert.Equal(t, fiber.StatusInternalServerError, code)
}
