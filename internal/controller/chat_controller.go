package controller

import (
	"bufio"
	"context"
	"errors"

	"ai-sitechat-be/internal/dto"
	"ai-sitechat-be/internal/pkg/serverutils"
	"ai-sitechat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.Chat)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// Validation errors are reported as a normal 400 before the stream opens.
	if err := c.chatService.Validate(&req); err != nil {
		if errors.Is(err, service.ErrQuestionTooLong) ||
			errors.Is(err, service.ErrEmptyQuestion) ||
			errors.Is(err, service.ErrNoUserMessage) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	chatService := c.chatService
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The fiber ctx is recycled once the handler returns; the stream
		// writer runs after that, so it gets a fresh context.
		_ = chatService.StreamChat(context.Background(), w, &req)
	}))

	return nil
}
