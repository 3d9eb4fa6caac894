package serverutils

import (
	"errors"
	"fmt"

	"chatbot-widget/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors and panics into the chat
// contract's failure body so widgets always get a structured answer.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = ctx.Status(fiber.StatusInternalServerError).JSON(FailureResponse("internal_error", fmt.Sprint(r)))
			}
		}()

		err = ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(FailureResponse("invalid_request", verr.Error()))
		}
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(FailureResponse("request_failed", ferr.Message))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(FailureResponse("internal_error", err.Error()))
	}
}

func FailureResponse(code, details string) dto.ChatResponse {
	return dto.ChatResponse{
		Success: false,
		Error:   code,
		Details: details,
	}
}
