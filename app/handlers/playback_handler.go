package handlers

import (
	"errors"
	"log"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// PlaybackHandlerInterface defines the contract for playout device handlers
type PlaybackHandlerInterface interface {
	Started(c fiber.Ctx) error
	Status(c fiber.Ctx) error
}

// PlaybackHandler receives device reports
type PlaybackHandler struct {
	baseHandler
	playbackFlow businessflow.PlaybackFlow
}

func NewPlaybackHandler(playbackFlow businessflow.PlaybackFlow) PlaybackHandlerInterface {
	return &PlaybackHandler{
		baseHandler:  newBaseHandler(),
		playbackFlow: playbackFlow,
	}
}

// Started records that the device began airing an item
// @Summary Report Playback Started
// @Description The playout device reports the item that just went on air
// @Tags Playback
// @Accept json
// @Produce json
// @Param request body dto.PlaybackStartedRequest true "Started item"
// @Success 200 {object} dto.APIResponse{data=dto.PlaybackStartedResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/playback/started [post]
func (h *PlaybackHandler) Started(c fiber.Ctx) error {
	var req dto.PlaybackStartedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/playback/started")
	defer cancel()

	result, err := h.playbackFlow.Started(ctx, &req)
	if err != nil {
		var be *businessflow.BusinessError
		if errors.As(err, &be) && be.Code == "INVALID_QUEUE_ITEM_ID" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
		}
		log.Println("Playback report failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record playback", "PLAYBACK_REPORT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Status returns what the engine tracks as on air and the active flows
// @Summary Playback Status
// @Tags Playback
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.PlaybackStatusResponse}
// @Router /api/v1/playback/status [get]
func (h *PlaybackHandler) Status(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/playback/status")
	defer cancel()

	result, err := h.playbackFlow.Status(ctx)
	if err != nil {
		log.Println("Playback status failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read playback status", "PLAYBACK_STATUS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
