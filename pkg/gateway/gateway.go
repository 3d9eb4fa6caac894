// Package gateway is the widget's view of the backend conversational engine:
// one request/response turn per user message plus a best-effort session close.
package gateway

import (
	"context"
	"errors"

	"chatbot-widget/internal/dto"
)

var (
	// ErrTransport marks failures where no structured response came back.
	ErrTransport = errors.New("gateway transport failure")
	// ErrDecode marks a 2xx response whose body was not a chat response.
	ErrDecode = errors.New("gateway response could not be decoded")
)

type Gateway interface {
	SendTurn(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error)
	CloseSession(ctx context.Context, req dto.CloseSessionRequest) error
}
