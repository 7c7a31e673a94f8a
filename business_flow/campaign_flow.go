package businessflow

import (
	"context"
	"errors"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/amirphl/airwave/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CampaignFlow manages commercial campaigns and their slot grid
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error)
	UpdateSchedule(ctx context.Context, campaignUUID string, req *dto.UpdateCampaignScheduleRequest) (*dto.CampaignResponse, error)
	UpdateStatus(ctx context.Context, campaignUUID string, req *dto.UpdateCampaignStatusRequest) (*dto.CampaignResponse, error)
}

// CampaignFlowImpl implements CampaignFlow
type CampaignFlowImpl struct {
	campaignRepo repository.CampaignRepository
	contentRepo  repository.ContentRepository
}

func NewCampaignFlow(campaignRepo repository.CampaignRepository, contentRepo repository.ContentRepository) CampaignFlow {
	return &CampaignFlowImpl{campaignRepo: campaignRepo, contentRepo: contentRepo}
}

func (f *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	refs, err := f.contentRefs(ctx, req.ContentRefs)
	if err != nil {
		return nil, err
	}

	entries, err := scheduleEntries(req.Schedule, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	// Empty cells carry no information on create.
	kept := entries[:0]
	for _, e := range entries {
		if e.PlayCount > 0 {
			kept = append(kept, e)
		}
	}

	campaign := &models.Campaign{
		Name:            req.Name,
		Type:            req.Type,
		Priority:        req.Priority,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          models.CampaignStatus(req.Status),
		ContentRefs:     refs,
		ScheduleEntries: kept,
	}
	if err := f.campaignRepo.Save(ctx, campaign); err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "Failed to create campaign", err)
	}

	return &dto.CampaignResponse{
		Message:  "Campaign created successfully",
		Campaign: ToCampaignDTO(campaign),
	}, nil
}

func (f *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	filter := models.CampaignFilter{}
	if req.Status != "" {
		status := models.CampaignStatus(req.Status)
		filter.Status = &status
	}
	if req.Type != "" {
		filter.Type = &req.Type
	}
	if req.ActiveOn != "" {
		filter.ActiveOn = &req.ActiveOn
	}
	page, pageSize := normalizePage(req.Page, req.PageSize)

	total, err := f.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to count campaigns", err)
	}
	rows, err := f.campaignRepo.ByFilter(ctx, filter, "priority DESC, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}

	items := make([]dto.Campaign, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToCampaignDTO(row))
	}
	return &dto.ListCampaignsResponse{
		Message:  "Campaigns retrieved successfully",
		Items:    items,
		PageInfo: dto.PageInfo{Total: total, Page: page, PageSize: pageSize},
	}, nil
}

func (f *CampaignFlowImpl) GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error) {
	campaign, err := f.campaignByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}
	return &dto.CampaignResponse{
		Message:  "Campaign retrieved successfully",
		Campaign: ToCampaignDTO(campaign),
	}, nil
}

func (f *CampaignFlowImpl) UpdateSchedule(ctx context.Context, campaignUUID string, req *dto.UpdateCampaignScheduleRequest) (*dto.CampaignResponse, error) {
	campaign, err := f.campaignByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	entries, err := scheduleEntries(req.Entries, campaign.StartDate, campaign.EndDate)
	if err != nil {
		return nil, err
	}
	if err := f.campaignRepo.SaveScheduleEntries(ctx, campaign.ID, entries); err != nil {
		return nil, NewBusinessError("CAMPAIGN_SCHEDULE_FAILED", "Failed to save campaign schedule", err)
	}

	updated, err := f.campaignRepo.ByID(ctx, campaign.ID)
	if err != nil || updated == nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to reload campaign", err)
	}
	return &dto.CampaignResponse{
		Message:  "Campaign schedule updated",
		Campaign: ToCampaignDTO(updated),
	}, nil
}

func (f *CampaignFlowImpl) UpdateStatus(ctx context.Context, campaignUUID string, req *dto.UpdateCampaignStatusRequest) (*dto.CampaignResponse, error) {
	campaign, err := f.campaignByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	status := models.CampaignStatus(req.Status)
	if status != campaign.Status {
		if err := f.campaignRepo.UpdateStatus(ctx, campaign.ID, status); err != nil {
			return nil, NewBusinessError("CAMPAIGN_UPDATE_FAILED", "Failed to update campaign status", err)
		}
		campaign.Status = status
	}
	return &dto.CampaignResponse{
		Message:  "Campaign status updated",
		Campaign: ToCampaignDTO(campaign),
	}, nil
}

// campaignByUUID loads a campaign with its full grid
func (f *CampaignFlowImpl) campaignByUUID(ctx context.Context, campaignUUID string) (*models.Campaign, error) {
	if _, err := utils.ParseUUID(campaignUUID); err != nil {
		return nil, ErrCampaignNotFound
	}
	found, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to look up campaign", err)
	}
	if found == nil {
		return nil, ErrCampaignNotFound
	}
	campaign, err := f.campaignRepo.ByID(ctx, found.ID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to look up campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// contentRefs checks that each ref names exactly one source and that catalog ids exist
func (f *CampaignFlowImpl) contentRefs(ctx context.Context, in []dto.ContentRef) (models.ContentRefs, error) {
	var ids []uint
	out := make(models.ContentRefs, 0, len(in))
	for i, r := range in {
		if (r.ContentID == nil) == (r.File == nil) {
			return nil, NewBusinessErrorf("INVALID_CONTENT_REF", "content ref %d must set exactly one of content_id and file", ErrCampaignContentInvalid, i)
		}
		ref := models.ContentRef{ContentID: r.ContentID}
		if r.File != nil {
			ref.File = &models.ContentFile{
				StorageID:       r.File.StorageID,
				Title:           r.File.Title,
				DurationSeconds: r.File.DurationSeconds,
			}
		} else {
			ids = append(ids, *r.ContentID)
		}
		out = append(out, ref)
	}

	if len(ids) == 0 {
		return out, nil
	}
	found, err := f.contentRepo.ByIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("CONTENT_LOOKUP_FAILED", "Failed to look up content", err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, NewBusinessErrorf("CONTENT_NOT_FOUND", "content %d not found", ErrContentNotFound, id)
		}
	}
	return out, nil
}

func scheduleEntries(in []dto.ScheduleEntry, startDate, endDate string) ([]models.CampaignScheduleEntry, error) {
	type cell struct {
		date  string
		index int
	}

	out := make([]models.CampaignScheduleEntry, 0, len(in))
	seen := make(map[cell]int, len(in))
	for _, e := range in {
		if _, err := utils.ParseDate(e.SlotDate, nil); err != nil {
			return nil, NewBusinessErrorf("INVALID_DATE", "invalid slot date %q", ErrInvalidDate, e.SlotDate)
		}
		if e.SlotDate < startDate || e.SlotDate > endDate {
			return nil, NewBusinessErrorf("SCHEDULE_OUT_OF_RANGE", "slot date %s is outside %s..%s", ErrScheduleOutOfRange, e.SlotDate, startDate, endDate)
		}
		if e.SlotIndex < 0 || e.SlotIndex >= utils.SlotsPerDay {
			return nil, NewBusinessErrorf("SCHEDULE_OUT_OF_RANGE", "slot index %d is outside 0..%d", ErrScheduleOutOfRange, e.SlotIndex, utils.SlotsPerDay-1)
		}
		// The last value for a cell wins.
		k := cell{e.SlotDate, e.SlotIndex}
		if i, dup := seen[k]; dup {
			out[i].PlayCount = e.PlayCount
			continue
		}
		seen[k] = len(out)
		out = append(out, models.CampaignScheduleEntry{
			SlotDate:  e.SlotDate,
			SlotIndex: e.SlotIndex,
			PlayCount: e.PlayCount,
		})
	}
	return out, nil
}

func validateDateRange(startDate, endDate string) error {
	start, err := utils.ParseDate(startDate, nil)
	if err != nil {
		return NewBusinessErrorf("INVALID_DATE", "invalid date %q", ErrInvalidDate, startDate)
	}
	end, err := utils.ParseDate(endDate, nil)
	if err != nil {
		return NewBusinessErrorf("INVALID_DATE", "invalid date %q", ErrInvalidDate, endDate)
	}
	if start.After(end) {
		return NewBusinessError("INVALID_DATE_RANGE", "start date must not be after end date", errors.Join(ErrCampaignDateRange, ErrStartDateAfterEndDate))
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
