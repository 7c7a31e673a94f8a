package handlers

import (
	"log"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	UpdateSchedule(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	baseHandler
	campaignFlow businessflow.CampaignFlow
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) CampaignHandlerInterface {
	return &CampaignHandler{
		baseHandler:  newBaseHandler(),
		campaignFlow: campaignFlow,
	}
}

// CreateCampaign handles the campaign creation process
// @Summary Create Campaign
// @Description Create a commercial campaign with its content and slot grid
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body dto.CreateCampaignRequest true "Campaign creation data"
// @Success 201 {object} dto.APIResponse{data=dto.CampaignResponse} "Campaign created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Content not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns")
	defer cancel()

	result, err := h.campaignFlow.CreateCampaign(ctx, &req)
	if err != nil {
		return h.handleError(c, "Campaign creation", err)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ListCampaigns returns a page of campaigns
// @Summary List Campaigns
// @Tags Campaigns
// @Produce json
// @Param status query string false "Campaign status"
// @Param type query string false "Campaign type"
// @Param active_on query string false "Date (YYYY-MM-DD) the campaign range must contain"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	var req dto.ListCampaignsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns")
	defer cancel()

	result, err := h.campaignFlow.ListCampaigns(ctx, &req)
	if err != nil {
		return h.handleError(c, "Campaign listing", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetCampaign returns one campaign with its full slot grid
// @Summary Get Campaign
// @Tags Campaigns
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignResponse}
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{uuid} [get]
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/:uuid")
	defer cancel()

	result, err := h.campaignFlow.GetCampaign(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleError(c, "Campaign lookup", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateSchedule upserts slot grid cells; a zero play_count clears a cell
// @Summary Update Campaign Schedule
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param request body dto.UpdateCampaignScheduleRequest true "Grid cells"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{uuid}/schedule [put]
func (h *CampaignHandler) UpdateSchedule(c fiber.Ctx) error {
	var req dto.UpdateCampaignScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/:uuid/schedule")
	defer cancel()

	result, err := h.campaignFlow.UpdateSchedule(ctx, c.Params("uuid"), &req)
	if err != nil {
		return h.handleError(c, "Campaign schedule update", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateStatus changes a campaign's status
// @Summary Update Campaign Status
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param request body dto.UpdateCampaignStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{uuid}/status [patch]
func (h *CampaignHandler) UpdateStatus(c fiber.Ctx) error {
	var req dto.UpdateCampaignStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/:uuid/status")
	defer cancel()

	result, err := h.campaignFlow.UpdateStatus(ctx, c.Params("uuid"), &req)
	if err != nil {
		return h.handleError(c, "Campaign status update", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *CampaignHandler) handleError(c fiber.Ctx, op string, err error) error {
	switch {
	case businessflow.IsCampaignNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	case businessflow.IsContentNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Content not found", "CONTENT_NOT_FOUND", err.Error())
	case businessflow.IsInvalidDate(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date", "INVALID_DATE", err.Error())
	case businessflow.IsCampaignDateRange(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date must not be after end date", "INVALID_DATE_RANGE", nil)
	case businessflow.IsCampaignContentInvalid(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid content reference", "INVALID_CONTENT_REF", err.Error())
	case businessflow.IsScheduleOutOfRange(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule entry out of range", "SCHEDULE_OUT_OF_RANGE", err.Error())
	}
	log.Println(op+" failed:", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, op+" failed", "CAMPAIGN_OPERATION_FAILED", nil)
}
