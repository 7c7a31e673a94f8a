package handlers

import (
	"log"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ContentHandlerInterface defines the contract for catalog handlers
type ContentHandlerInterface interface {
	CreateContent(c fiber.Ctx) error
	ListContents(c fiber.Ctx) error
}

// ContentHandler handles the content catalog
type ContentHandler struct {
	baseHandler
	contentFlow businessflow.ContentFlow
}

func NewContentHandler(contentFlow businessflow.ContentFlow) ContentHandlerInterface {
	return &ContentHandler{
		baseHandler: newBaseHandler(),
		contentFlow: contentFlow,
	}
}

// CreateContent adds an item to the catalog
// @Summary Create Content
// @Tags Contents
// @Accept json
// @Produce json
// @Param request body dto.CreateContentRequest true "Catalog item"
// @Success 201 {object} dto.APIResponse{data=dto.ContentResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/contents [post]
func (h *ContentHandler) CreateContent(c fiber.Ctx) error {
	var req dto.CreateContentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/contents")
	defer cancel()

	result, err := h.contentFlow.CreateContent(ctx, &req)
	if err != nil {
		log.Println("Content creation failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Content creation failed", "CONTENT_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ListContents returns a page of catalog items
// @Summary List Contents
// @Tags Contents
// @Produce json
// @Param type query string false "song, commercial, jingle or announcement"
// @Param genre query string false "Genre"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListContentsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/contents [get]
func (h *ContentHandler) ListContents(c fiber.Ctx) error {
	var req dto.ListContentsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/contents")
	defer cancel()

	result, err := h.contentFlow.ListContents(ctx, &req)
	if err != nil {
		log.Println("Content listing failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Content listing failed", "CONTENT_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
