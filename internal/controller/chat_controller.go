package controller

import (
	"chatbot-widget/internal/dto"
	"chatbot-widget/internal/pkg/serverutils"
	"chatbot-widget/internal/stub"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type chatController struct {
	engine *stub.Engine
}

func NewChatController(engine *stub.Engine) IChatController {
	return &chatController{
		engine: engine,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1/chat")
	h.Post("", c.Send)
	h.Post("close", c.Close)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON chat request")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.engine.Handle(req)
	return ctx.Status(res.Status).JSON(res.Response)
}

func (c *chatController) Close(ctx *fiber.Ctx) error {
	var req dto.CloseSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON close request")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	c.engine.Close(req.SessionId)
	return ctx.JSON(dto.CloseSessionResponse{Success: true})
}
