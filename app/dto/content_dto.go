package dto

import (
	"encoding/json"
	"time"
)

// CreateContentRequest adds an item to the catalog
type CreateContentRequest struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Artist          string          `json:"artist,omitempty" validate:"max=255"`
	Type            string          `json:"type" validate:"required,oneof=song commercial jingle announcement"`
	Genre           string          `json:"genre,omitempty" validate:"max=64"`
	DurationSeconds int             `json:"duration_seconds" validate:"gte=0"`
	StorageKey      string          `json:"storage_key" validate:"required,max=512"`
	Metadata        json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// ListContentsRequest filters the catalog listing
type ListContentsRequest struct {
	Type     string `query:"type" validate:"omitempty,oneof=song commercial jingle announcement"`
	Genre    string `query:"genre" validate:"omitempty,max=64"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// Content is the API view of a catalog item
type Content struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	Artist          string          `json:"artist,omitempty"`
	Type            string          `json:"type"`
	Genre           string          `json:"genre,omitempty"`
	DurationSeconds int             `json:"duration_seconds"`
	StorageKey      string          `json:"storage_key"`
	IsActive        bool            `json:"is_active"`
	Metadata        json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ContentResponse wraps a single catalog item
type ContentResponse struct {
	Message string  `json:"message"`
	Content Content `json:"content"`
}

// ListContentsResponse is one page of the catalog
type ListContentsResponse struct {
	Message string    `json:"message"`
	Items   []Content `json:"items"`
	PageInfo
}

// PlayLogReportRequest selects the station days of a proof-of-play report
type PlayLogReportRequest struct {
	From string `query:"from" validate:"required,datetime=2006-01-02"`
	To   string `query:"to" validate:"required,datetime=2006-01-02"`
}
