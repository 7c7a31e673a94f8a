package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/amirphl/airwave/utils"
)

const (
	maxFlowActions       = 100
	maxGenreCount        = 100
	defaultExecutionPage = 50
)

// FlowManagementFlow defines flows and guards their schedule admission
type FlowManagementFlow interface {
	CheckSchedule(ctx context.Context, req *dto.ScheduleCheckRequest) (*dto.ScheduleCheckResponse, error)
	CreateFlow(ctx context.Context, req *dto.CreateFlowRequest) (*dto.FlowResponse, error)
	ListFlows(ctx context.Context) (*dto.ListFlowsResponse, error)
	GetFlow(ctx context.Context, flowUUID string) (*dto.FlowResponse, error)
	UpdateFlowStatus(ctx context.Context, flowUUID string, req *dto.UpdateFlowStatusRequest) (*dto.FlowResponse, error)
	ListExecutions(ctx context.Context, flowUUID string, limit int) (*dto.ListFlowExecutionsResponse, error)
}

// FlowManagementFlowImpl implements FlowManagementFlow
type FlowManagementFlowImpl struct {
	flowRepo      repository.FlowRepository
	executionRepo repository.FlowExecutionLogRepository
	contentRepo   repository.ContentRepository
	window        *scheduler.FlowWindow
}

func NewFlowManagementFlow(
	flowRepo repository.FlowRepository,
	executionRepo repository.FlowExecutionLogRepository,
	contentRepo repository.ContentRepository,
	window *scheduler.FlowWindow,
) FlowManagementFlow {
	return &FlowManagementFlowImpl{
		flowRepo:      flowRepo,
		executionRepo: executionRepo,
		contentRepo:   contentRepo,
		window:        window,
	}
}

func (f *FlowManagementFlowImpl) CheckSchedule(ctx context.Context, req *dto.ScheduleCheckRequest) (*dto.ScheduleCheckResponse, error) {
	var excludeID *uint
	if req.FlowID != nil {
		existing, err := f.flowByUUID(ctx, *req.FlowID)
		if err != nil {
			return nil, err
		}
		excludeID = &existing.ID
	}

	schedule := FromFlowScheduleDTO(req.Schedule)
	if err := scheduler.ValidateSchedule(schedule); err != nil {
		return nil, NewBusinessError("INVALID_SCHEDULE", err.Error(), errors.Join(ErrInvalidSchedule, err))
	}

	conflicts, err := f.conflicts(ctx, schedule, excludeID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ScheduleCheckResponse{
		Admitted:  len(conflicts) == 0,
		Conflicts: conflicts,
	}
	if resp.Admitted {
		resp.Message = "Schedule does not overlap any active flow"
	} else {
		resp.Message = fmt.Sprintf("Schedule overlaps %d active flow(s)", len(conflicts))
	}
	return resp, nil
}

func (f *FlowManagementFlowImpl) CreateFlow(ctx context.Context, req *dto.CreateFlowRequest) (*dto.FlowResponse, error) {
	var actions models.FlowActions
	if err := json.Unmarshal(req.Actions, &actions); err != nil {
		return nil, NewBusinessError("INVALID_FLOW_ACTIONS", err.Error(), errors.Join(ErrFlowActionsInvalid, err))
	}
	if err := f.validateActions(ctx, actions); err != nil {
		return nil, err
	}

	flow := &models.Flow{
		Name:        req.Name,
		Description: req.Description,
		Actions:     actions,
		TriggerType: models.FlowTriggerType(req.TriggerType),
		Status:      models.FlowStatus(req.Status),
		Loop:        req.Loop,
		Priority:    req.Priority,
	}
	if flow.Status == "" {
		flow.Status = models.FlowStatusDraft
	}

	if req.Schedule != nil {
		flow.Schedule = FromFlowScheduleDTO(*req.Schedule)
		if err := scheduler.ValidateSchedule(flow.Schedule); err != nil {
			return nil, NewBusinessError("INVALID_SCHEDULE", err.Error(), errors.Join(ErrInvalidSchedule, err))
		}
	}
	if flow.TriggerType == models.FlowTriggerScheduled && flow.Schedule == nil {
		return nil, NewBusinessError("FLOW_SCHEDULE_REQUIRED", "Scheduled flows need a schedule", ErrFlowScheduleMissing)
	}

	if flow.Status == models.FlowStatusActive && flow.TriggerType == models.FlowTriggerScheduled {
		if err := f.admit(ctx, flow.Schedule, nil); err != nil {
			return nil, err
		}
	}

	if err := f.flowRepo.Save(ctx, flow); err != nil {
		return nil, NewBusinessError("FLOW_CREATE_FAILED", "Failed to create flow", err)
	}

	return f.flowResponse("Flow created successfully", flow)
}

func (f *FlowManagementFlowImpl) ListFlows(ctx context.Context) (*dto.ListFlowsResponse, error) {
	rows, err := f.flowRepo.ByFilter(ctx, models.FlowFilter{}, "priority DESC, id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("FLOW_LIST_FAILED", "Failed to list flows", err)
	}
	items := make([]dto.Flow, 0, len(rows))
	for _, row := range rows {
		item, err := ToFlowDTO(row)
		if err != nil {
			return nil, NewBusinessError("FLOW_LIST_FAILED", "Failed to encode flow", err)
		}
		items = append(items, item)
	}
	return &dto.ListFlowsResponse{Message: "Flows retrieved successfully", Items: items}, nil
}

func (f *FlowManagementFlowImpl) GetFlow(ctx context.Context, flowUUID string) (*dto.FlowResponse, error) {
	flow, err := f.flowByUUID(ctx, flowUUID)
	if err != nil {
		return nil, err
	}
	return f.flowResponse("Flow retrieved successfully", flow)
}

func (f *FlowManagementFlowImpl) UpdateFlowStatus(ctx context.Context, flowUUID string, req *dto.UpdateFlowStatusRequest) (*dto.FlowResponse, error) {
	flow, err := f.flowByUUID(ctx, flowUUID)
	if err != nil {
		return nil, err
	}

	status := models.FlowStatus(req.Status)
	if status == flow.Status {
		return f.flowResponse("Flow status unchanged", flow)
	}

	// Re-admit on activation; other active flows may have claimed the window meanwhile.
	if status == models.FlowStatusActive && flow.TriggerType == models.FlowTriggerScheduled {
		if flow.Schedule == nil {
			return nil, NewBusinessError("FLOW_SCHEDULE_REQUIRED", "Scheduled flows need a schedule", ErrFlowScheduleMissing)
		}
		if err := f.admit(ctx, flow.Schedule, &flow.ID); err != nil {
			return nil, err
		}
	}

	if err := f.flowRepo.UpdateStatus(ctx, flow.ID, status); err != nil {
		return nil, NewBusinessError("FLOW_UPDATE_FAILED", "Failed to update flow status", err)
	}
	flow.Status = status
	return f.flowResponse("Flow status updated", flow)
}

func (f *FlowManagementFlowImpl) ListExecutions(ctx context.Context, flowUUID string, limit int) (*dto.ListFlowExecutionsResponse, error) {
	flow, err := f.flowByUUID(ctx, flowUUID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = defaultExecutionPage
	}

	rows, err := f.executionRepo.ByFilter(ctx, models.FlowExecutionLogFilter{FlowID: &flow.ID}, "started_at DESC, id DESC", limit, 0)
	if err != nil {
		return nil, NewBusinessError("FLOW_EXECUTIONS_FAILED", "Failed to list flow executions", err)
	}
	items := make([]dto.FlowExecution, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToFlowExecutionDTO(row))
	}
	return &dto.ListFlowExecutionsResponse{Message: "Flow executions retrieved successfully", Items: items}, nil
}

func (f *FlowManagementFlowImpl) admit(ctx context.Context, schedule *models.FlowSchedule, excludeID *uint) error {
	conflicts, err := f.conflicts(ctx, schedule, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return NewBusinessErrorf("SCHEDULE_CONFLICT", "schedule overlaps active flow %q", ErrScheduleConflict, conflicts[0].Name)
	}
	return nil
}

func (f *FlowManagementFlowImpl) conflicts(ctx context.Context, schedule *models.FlowSchedule, excludeID *uint) ([]dto.ScheduleConflict, error) {
	active, err := f.flowRepo.ListActiveScheduled(ctx, excludeID)
	if err != nil {
		return nil, NewBusinessError("FLOW_LIST_FAILED", "Failed to list active flows", err)
	}

	conflicts := []dto.ScheduleConflict{}
	for _, other := range active {
		if !f.window.Overlaps(schedule, other.Schedule) {
			continue
		}
		conflicts = append(conflicts, dto.ScheduleConflict{
			FlowID:   other.UUID.String(),
			Name:     other.Name,
			Priority: other.Priority,
			Schedule: *ToFlowScheduleDTO(other.Schedule),
		})
	}
	return conflicts, nil
}

func (f *FlowManagementFlowImpl) validateActions(ctx context.Context, actions models.FlowActions) error {
	if len(actions) == 0 {
		return NewBusinessError("INVALID_FLOW_ACTIONS", "flow needs at least one action", ErrFlowActionsInvalid)
	}
	if len(actions) > maxFlowActions {
		return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "flow has more than %d actions", ErrFlowActionsInvalid, maxFlowActions)
	}

	var contentIDs []uint
	for i, a := range actions {
		switch act := a.(type) {
		case models.PlayGenreAction:
			if act.Genre == "" || act.Count < 1 || act.Count > maxGenreCount {
				return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "action %d: play_genre needs a genre and a count of 1-%d", ErrFlowActionsInvalid, i, maxGenreCount)
			}
		case models.PlayCommercialsAction:
			if act.MaxCount < 0 || act.MaxDurationSeconds < 0 {
				return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "action %d: play_commercials limits must not be negative", ErrFlowActionsInvalid, i)
			}
		case models.WaitAction:
			if act.Seconds <= 0 {
				return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "action %d: wait needs a positive number of seconds", ErrFlowActionsInvalid, i)
			}
		case models.SetVolumeAction:
			if act.Level < 0 || act.Level > 100 {
				return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "action %d: volume level must be 0-100", ErrFlowActionsInvalid, i)
			}
		case models.AnnouncementAction:
			if act.ContentID == 0 {
				return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "action %d: announcement needs content_id", ErrFlowActionsInvalid, i)
			}
			contentIDs = append(contentIDs, act.ContentID)
		case models.PlayContentAction:
			if act.ContentID == 0 {
				return NewBusinessErrorf("INVALID_FLOW_ACTIONS", "action %d: play_content needs content_id", ErrFlowActionsInvalid, i)
			}
			contentIDs = append(contentIDs, act.ContentID)
		}
	}

	if len(contentIDs) == 0 {
		return nil
	}
	found, err := f.contentRepo.ByIDs(ctx, contentIDs)
	if err != nil {
		return NewBusinessError("CONTENT_LOOKUP_FAILED", "Failed to look up content", err)
	}
	for _, id := range contentIDs {
		if _, ok := found[id]; !ok {
			return NewBusinessErrorf("CONTENT_NOT_FOUND", "content %d not found", ErrContentNotFound, id)
		}
	}
	return nil
}

func (f *FlowManagementFlowImpl) flowByUUID(ctx context.Context, flowUUID string) (*models.Flow, error) {
	if _, err := utils.ParseUUID(flowUUID); err != nil {
		return nil, ErrFlowNotFound
	}
	flow, err := f.flowRepo.ByUUID(ctx, flowUUID)
	if err != nil {
		return nil, NewBusinessError("FLOW_LOOKUP_FAILED", "Failed to look up flow", err)
	}
	if flow == nil {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

func (f *FlowManagementFlowImpl) flowResponse(message string, flow *models.Flow) (*dto.FlowResponse, error) {
	item, err := ToFlowDTO(flow)
	if err != nil {
		return nil, NewBusinessError("FLOW_ENCODE_FAILED", "Failed to encode flow", err)
	}
	return &dto.FlowResponse{Message: message, Flow: item}, nil
}
