package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"guided-dialogue-be/internal/pkg/logger"
	"guided-dialogue-be/pkg/dialogue"
)

// NewErrorHandler maps domain errors onto HTTP statuses so controllers can
// just return them. Anything unrecognized becomes a 500 with a generic body.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code, message := classify(err)

		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"path":   ctx.Path(),
				"method": ctx.Method(),
				"error":  err.Error(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	switch {
	case errors.Is(err, dialogue.ErrQuotaExceeded):
		return fiber.StatusTooManyRequests, "Daily session limit reached. Try again tomorrow."
	case errors.Is(err, dialogue.ErrQuotaUnavailable):
		return fiber.StatusServiceUnavailable, "Usage tracking is unavailable. Try again later."
	case errors.Is(err, dialogue.ErrSessionNotFound):
		return fiber.StatusNotFound, "Session not found"
	case errors.Is(err, dialogue.ErrSessionResolved):
		return fiber.StatusConflict, "Session is already resolved"
	case errors.Is(err, dialogue.ErrTurnInFlight):
		return fiber.StatusConflict, "A reply for this session is still being generated"
	case errors.Is(err, dialogue.ErrTurnNotAllowed):
		return fiber.StatusConflict, "This action is not allowed in the session's current state"
	case errors.Is(err, dialogue.ErrInvalidDepth),
		errors.Is(err, dialogue.ErrInvalidCategory),
		errors.Is(err, dialogue.ErrInvalidMode),
		errors.Is(err, dialogue.ErrEmptyProblem):
		return fiber.StatusBadRequest, err.Error()
	}

	var llmErr *dialogue.LLMError
	if errors.As(err, &llmErr) {
		return fiber.StatusBadGateway, "The AI service failed to respond. Nothing was saved; please retry."
	}

	var storeErr *dialogue.StoreError
	if errors.As(err, &storeErr) {
		return fiber.StatusInternalServerError, "Internal server error"
	}

	return fiber.StatusInternalServerError, "Internal server error"
}
