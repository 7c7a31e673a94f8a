package handlers

import (
	"log"
	"time"

	"github.com/amirphl/airwave/app/dto"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ReportHandlerInterface defines the contract for report downloads
type ReportHandlerInterface interface {
	PlayLogs(c fiber.Ctx) error
}

// ReportHandler serves proof-of-play workbooks
type ReportHandler struct {
	baseHandler
	reportFlow businessflow.ReportFlow
}

func NewReportHandler(reportFlow businessflow.ReportFlow) ReportHandlerInterface {
	return &ReportHandler{
		baseHandler: newBaseHandler(),
		reportFlow:  reportFlow,
	}
}

// PlayLogs returns an Excel workbook of everything aired between two station days
// @Summary Download Proof-of-Play Report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD), at most 31 days after from"
// @Success 200 {string} string "Excel file"
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/reports/play-logs [get]
func (h *ReportHandler) PlayLogs(c fiber.Ctx) error {
	var req dto.PlayLogReportRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/reports/play-logs", 60*time.Second)
	defer cancel()

	filename, data, err := h.reportFlow.PlayLogReport(ctx, &req)
	if err != nil {
		switch {
		case businessflow.IsInvalidDate(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date", "INVALID_DATE", err.Error())
		case businessflow.IsStartDateAfterEndDate(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "from must not be after to", "INVALID_DATE_RANGE", nil)
		case businessflow.IsReportRangeTooLarge(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Report range is too large", "REPORT_RANGE_TOO_LARGE", err.Error())
		}
		log.Println("Play log report failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate Excel", "REPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
