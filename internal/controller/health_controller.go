package controller

import (
	"ai-sitechat-be/internal/dto"
	"ai-sitechat-be/internal/pkg/serverutils"
	"ai-sitechat-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	passages contract.PassageEmbeddingRepository
}

func NewHealthController(passages contract.PassageEmbeddingRepository) IHealthController {
	return &healthController{
		passages: passages,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health/v1")
	h.Get("", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	count, err := c.passages.Count(ctx.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "database unreachable")
	}

	return ctx.JSON(serverutils.SuccessResponse("ok", dto.HealthResponse{
		Status:    "ok",
		Documents: count,
	}))
}
