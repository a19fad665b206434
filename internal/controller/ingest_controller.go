package controller

import (
	"ai-sitechat-be/internal/dto"
	"ai-sitechat-be/internal/pkg/serverutils"
	"ai-sitechat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
}

type ingestController struct {
	publisher service.IIngestPublisherService
}

func NewIngestController(publisher service.IIngestPublisherService) IIngestController {
	return &ingestController{
		publisher: publisher,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Post("", c.Ingest)
}

func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	force := ctx.QueryBool("force")
	queued, err := c.publisher.PublishUrls(req.Urls, force)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse("Urls queued for indexing", dto.IngestResponse{Queued: queued}))
}
