package handlers

import (
	"log"
	"strconv"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// FlowHandlerInterface defines the contract for flow handlers
type FlowHandlerInterface interface {
	CheckSchedule(c fiber.Ctx) error
	CreateFlow(c fiber.Ctx) error
	ListFlows(c fiber.Ctx) error
	GetFlow(c fiber.Ctx) error
	UpdateFlowStatus(c fiber.Ctx) error
	ListExecutions(c fiber.Ctx) error
}

// FlowHandler handles flow definitions and their schedules
type FlowHandler struct {
	baseHandler
	flowManagement businessflow.FlowManagementFlow
}

func NewFlowHandler(flowManagement businessflow.FlowManagementFlow) FlowHandlerInterface {
	return &FlowHandler{
		baseHandler:    newBaseHandler(),
		flowManagement: flowManagement,
	}
}

// CheckSchedule reports which active flows a schedule would overlap
// @Summary Check Flow Schedule
// @Tags Flows
// @Accept json
// @Produce json
// @Param request body dto.ScheduleCheckRequest true "Schedule to check"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleCheckResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/flows/schedule/check [post]
func (h *FlowHandler) CheckSchedule(c fiber.Ctx) error {
	var req dto.ScheduleCheckRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/flows/schedule/check")
	defer cancel()

	result, err := h.flowManagement.CheckSchedule(ctx, &req)
	if err != nil {
		return h.handleError(c, "Schedule check", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateFlow stores a new flow
// @Summary Create Flow
// @Description Active scheduled flows must not overlap another active scheduled flow
// @Tags Flows
// @Accept json
// @Produce json
// @Param request body dto.CreateFlowRequest true "Flow definition"
// @Success 201 {object} dto.APIResponse{data=dto.FlowResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Referenced content not found"
// @Failure 409 {object} dto.APIResponse "Schedule conflict"
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/flows [post]
func (h *FlowHandler) CreateFlow(c fiber.Ctx) error {
	var req dto.CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/flows")
	defer cancel()

	result, err := h.flowManagement.CreateFlow(ctx, &req)
	if err != nil {
		return h.handleError(c, "Flow creation", err)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ListFlows returns every flow, highest priority first
// @Summary List Flows
// @Tags Flows
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListFlowsResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/flows [get]
func (h *FlowHandler) ListFlows(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/flows")
	defer cancel()

	result, err := h.flowManagement.ListFlows(ctx)
	if err != nil {
		return h.handleError(c, "Flow listing", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetFlow returns one flow
// @Summary Get Flow
// @Tags Flows
// @Produce json
// @Param uuid path string true "Flow UUID"
// @Success 200 {object} dto.APIResponse{data=dto.FlowResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/flows/{uuid} [get]
func (h *FlowHandler) GetFlow(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/flows/:uuid")
	defer cancel()

	result, err := h.flowManagement.GetFlow(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleError(c, "Flow lookup", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateFlowStatus activates or deactivates a flow
// @Summary Update Flow Status
// @Tags Flows
// @Accept json
// @Produce json
// @Param uuid path string true "Flow UUID"
// @Param request body dto.UpdateFlowStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.FlowResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Schedule conflict"
// @Router /api/v1/flows/{uuid}/status [patch]
func (h *FlowHandler) UpdateFlowStatus(c fiber.Ctx) error {
	var req dto.UpdateFlowStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/flows/:uuid/status")
	defer cancel()

	result, err := h.flowManagement.UpdateFlowStatus(ctx, c.Params("uuid"), &req)
	if err != nil {
		return h.handleError(c, "Flow status update", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ListExecutions returns the most recent execution logs of a flow
// @Summary List Flow Executions
// @Tags Flows
// @Produce json
// @Param uuid path string true "Flow UUID"
// @Param limit query int false "Maximum rows (default 50, max 500)"
// @Success 200 {object} dto.APIResponse{data=dto.ListFlowExecutionsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/flows/{uuid}/executions [get]
func (h *FlowHandler) ListExecutions(c fiber.Ctx) error {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid limit", "INVALID_REQUEST", nil)
		}
		limit = n
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/flows/:uuid/executions")
	defer cancel()

	result, err := h.flowManagement.ListExecutions(ctx, c.Params("uuid"), limit)
	if err != nil {
		return h.handleError(c, "Flow execution listing", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *FlowHandler) handleError(c fiber.Ctx, op string, err error) error {
	switch {
	case businessflow.IsFlowNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Flow not found", "FLOW_NOT_FOUND", nil)
	case businessflow.IsContentNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Content not found", "CONTENT_NOT_FOUND", err.Error())
	case businessflow.IsInvalidSchedule(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule", "INVALID_SCHEDULE", err.Error())
	case businessflow.IsFlowActionsInvalid(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid flow actions", "INVALID_FLOW_ACTIONS", err.Error())
	case businessflow.IsFlowScheduleMissing(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled flows need a schedule", "FLOW_SCHEDULE_REQUIRED", nil)
	case businessflow.IsScheduleConflict(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Schedule overlaps an active flow", "SCHEDULE_CONFLICT", err.Error())
	}
	log.Println(op+" failed:", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, op+" failed", "FLOW_OPERATION_FAILED", nil)
}
