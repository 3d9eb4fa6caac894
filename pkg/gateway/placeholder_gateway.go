package gateway

import (
	"context"
	"fmt"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/dto"
	"chatbot-widget/internal/entity"
	"chatbot-widget/pkg/clock"
)

// PlaceholderGateway stands in when no backend is configured. It echoes the
// user's text after a short delay and never starts a booking.
type PlaceholderGateway struct {
	clock clock.Clock
	delay time.Duration
}

var _ Gateway = &PlaceholderGateway{}

func NewPlaceholderGateway(clk clock.Clock) *PlaceholderGateway {
	return &PlaceholderGateway{
		clock: clk,
		delay: constant.PlaceholderReplyDelay,
	}
}

func (g *PlaceholderGateway) SendTurn(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	select {
	case <-g.clock.After(g.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &dto.ChatResponse{
		Success:        true,
		Message:        fmt.Sprintf(constant.PlaceholderReplyFormat, req.UserMessage),
		BookingStatus:  new(entity.BookingStatus),
		BookingStep:    new(entity.BookingStep),
		AvailableSlots: new([]entity.TimeSlot),
	}, nil
}

func (g *PlaceholderGateway) CloseSession(ctx context.Context, req dto.CloseSessionRequest) error {
	return nil
}
