package businessflow

import (
	"context"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/amirphl/airwave/utils"
)

// ContentFlow manages the content catalog
type ContentFlow interface {
	CreateContent(ctx context.Context, req *dto.CreateContentRequest) (*dto.ContentResponse, error)
	ListContents(ctx context.Context, req *dto.ListContentsRequest) (*dto.ListContentsResponse, error)
}

// ContentFlowImpl implements ContentFlow
type ContentFlowImpl struct {
	contentRepo repository.ContentRepository
}

func NewContentFlow(contentRepo repository.ContentRepository) ContentFlow {
	return &ContentFlowImpl{contentRepo: contentRepo}
}

func (f *ContentFlowImpl) CreateContent(ctx context.Context, req *dto.CreateContentRequest) (*dto.ContentResponse, error) {
	content := &models.Content{
		Title:           req.Title,
		Artist:          req.Artist,
		Type:            models.ContentType(req.Type),
		Genre:           req.Genre,
		DurationSeconds: req.DurationSeconds,
		StorageKey:      req.StorageKey,
		IsActive:        utils.ToPtr(true),
		Metadata:        req.Metadata,
	}
	if err := f.contentRepo.Save(ctx, content); err != nil {
		return nil, NewBusinessError("CONTENT_CREATE_FAILED", "Failed to create content", err)
	}
	return &dto.ContentResponse{
		Message: "Content created successfully",
		Content: ToContentDTO(content),
	}, nil
}

func (f *ContentFlowImpl) ListContents(ctx context.Context, req *dto.ListContentsRequest) (*dto.ListContentsResponse, error) {
	filter := models.ContentFilter{}
	if req.Type != "" {
		t := models.ContentType(req.Type)
		filter.Type = &t
	}
	if req.Genre != "" {
		filter.Genre = &req.Genre
	}
	page, pageSize := normalizePage(req.Page, req.PageSize)

	total, err := f.contentRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CONTENT_LIST_FAILED", "Failed to count content", err)
	}
	rows, err := f.contentRepo.ByFilter(ctx, filter, "id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CONTENT_LIST_FAILED", "Failed to list content", err)
	}

	items := make([]dto.Content, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToContentDTO(row))
	}
	return &dto.ListContentsResponse{
		Message:  "Content retrieved successfully",
		Items:    items,
		PageInfo: dto.PageInfo{Total: total, Page: page, PageSize: pageSize},
	}, nil
}
