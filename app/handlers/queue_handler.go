package handlers

import (
	"log"
	"strconv"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// QueueHandlerInterface defines the contract for playback queue handlers
type QueueHandlerInterface interface {
	List(c fiber.Ctx) error
	Append(c fiber.Ctx) error
	Insert(c fiber.Ctx) error
	Remove(c fiber.Ctx) error
	Move(c fiber.Ctx) error
	Clear(c fiber.Ctx) error
}

// QueueHandler handles manual edits of the playback queue
type QueueHandler struct {
	baseHandler
	queueFlow businessflow.QueueFlow
}

func NewQueueHandler(queueFlow businessflow.QueueFlow) QueueHandlerInterface {
	return &QueueHandler{
		baseHandler: newBaseHandler(),
		queueFlow:   queueFlow,
	}
}

// List returns the playback queue in play order
// @Summary List Queue
// @Tags Queue
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.QueueResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/queue [get]
func (h *QueueHandler) List(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/queue")
	defer cancel()

	result, err := h.queueFlow.List(ctx)
	if err != nil {
		return h.handleError(c, "List queue", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Append adds catalog items to the end of the queue
// @Summary Append To Queue
// @Tags Queue
// @Accept json
// @Produce json
// @Param request body dto.AppendQueueRequest true "Content ids in play order"
// @Success 200 {object} dto.APIResponse{data=dto.QueueResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Content not found"
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/queue [post]
func (h *QueueHandler) Append(c fiber.Ctx) error {
	var req dto.AppendQueueRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/queue")
	defer cancel()

	result, err := h.queueFlow.Append(ctx, &req)
	if err != nil {
		return h.handleError(c, "Append to queue", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Insert puts catalog items at a position
// @Summary Insert Into Queue
// @Tags Queue
// @Accept json
// @Produce json
// @Param request body dto.InsertQueueRequest true "Index and content ids"
// @Success 200 {object} dto.APIResponse{data=dto.QueueResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Content not found"
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/queue/insert [post]
func (h *QueueHandler) Insert(c fiber.Ctx) error {
	var req dto.InsertQueueRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/queue/insert")
	defer cancel()

	result, err := h.queueFlow.Insert(ctx, &req)
	if err != nil {
		return h.handleError(c, "Insert into queue", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Remove deletes the item at an index
// @Summary Remove From Queue
// @Tags Queue
// @Produce json
// @Param index path int true "Queue index"
// @Success 200 {object} dto.APIResponse{data=dto.QueueResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/queue/{index} [delete]
func (h *QueueHandler) Remove(c fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid queue index", "INVALID_INDEX", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/queue/:index")
	defer cancel()

	result, err := h.queueFlow.Remove(ctx, index)
	if err != nil {
		return h.handleError(c, "Remove from queue", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Move relocates one item
// @Summary Move Queue Item
// @Tags Queue
// @Accept json
// @Produce json
// @Param request body dto.MoveQueueRequest true "From and to indices"
// @Success 200 {object} dto.APIResponse{data=dto.QueueResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/queue/move [post]
func (h *QueueHandler) Move(c fiber.Ctx) error {
	var req dto.MoveQueueRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/queue/move")
	defer cancel()

	result, err := h.queueFlow.Move(ctx, &req)
	if err != nil {
		return h.handleError(c, "Move queue item", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Clear empties the queue
// @Summary Clear Queue
// @Tags Queue
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.QueueResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/queue [delete]
func (h *QueueHandler) Clear(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/queue")
	defer cancel()

	result, err := h.queueFlow.Clear(ctx)
	if err != nil {
		return h.handleError(c, "Clear queue", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *QueueHandler) handleError(c fiber.Ctx, op string, err error) error {
	switch {
	case businessflow.IsContentNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Content not found", "CONTENT_NOT_FOUND", err.Error())
	case businessflow.IsContentInactive(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Content is inactive", "CONTENT_INACTIVE", err.Error())
	case businessflow.IsQueueIndexOutOfRange(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Queue index out of range", "QUEUE_INDEX_OUT_OF_RANGE", nil)
	}
	log.Println(op+" failed:", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, op+" failed", "QUEUE_OPERATION_FAILED", nil)
}
