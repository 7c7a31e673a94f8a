package handlers

import (
	"log"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// CommercialHandlerInterface defines the contract for commercial slot handlers
type CommercialHandlerInterface interface {
	Preview(c fiber.Ctx) error
	Trigger(c fiber.Ctx) error
}

// CommercialHandler exposes slot resolution to operators
type CommercialHandler struct {
	baseHandler
	commercialFlow businessflow.CommercialFlow
}

func NewCommercialHandler(commercialFlow businessflow.CommercialFlow) CommercialHandlerInterface {
	return &CommercialHandler{
		baseHandler:    newBaseHandler(),
		commercialFlow: commercialFlow,
	}
}

// Preview resolves a slot without queueing or logging anything
// @Summary Preview Slot Commercials
// @Tags Commercials
// @Produce json
// @Param at query string false "RFC3339 instant, defaults to now"
// @Param force query bool false "Ignore already played counts"
// @Param max_count query int false "Maximum number of commercials"
// @Param max_duration_seconds query int false "Maximum total duration"
// @Success 200 {object} dto.APIResponse{data=dto.CommercialPreviewResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/commercials/preview [get]
func (h *CommercialHandler) Preview(c fiber.Ctx) error {
	var req dto.CommercialPreviewRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/commercials/preview")
	defer cancel()

	result, err := h.commercialFlow.Preview(ctx, &req)
	if err != nil {
		if businessflow.IsInvalidDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid at parameter", "INVALID_DATE", nil)
		}
		log.Println("Commercial preview failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve commercials", "COMMERCIAL_PREVIEW_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Trigger queues the current slot's commercials at the front of the queue
// @Summary Trigger Slot Commercials
// @Description Manual trigger. Items go to the queue head and are logged with triggered_by=manual.
// @Tags Commercials
// @Accept json
// @Produce json
// @Param request body dto.TriggerCommercialsRequest true "Trigger options"
// @Success 200 {object} dto.APIResponse{data=dto.TriggerCommercialsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Another trigger is running"
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/commercials/trigger [post]
func (h *CommercialHandler) Trigger(c fiber.Ctx) error {
	var req dto.TriggerCommercialsRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))

	ctx, cancel := h.createRequestContext(c, "/api/v1/commercials/trigger")
	defer cancel()

	result, err := h.commercialFlow.Trigger(ctx, &req, metadata)
	if err != nil {
		if businessflow.IsTriggerInProgress(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A commercial trigger is already running", "TRIGGER_IN_PROGRESS", nil)
		}
		log.Println("Commercial trigger failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to trigger commercials", "COMMERCIAL_TRIGGER_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
