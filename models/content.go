package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/airwave/utils"
	"gorm.io/gorm"
)

// ContentType classifies catalog items
type ContentType string

const (
	ContentTypeSong         ContentType = "song"
	ContentTypeCommercial   ContentType = "commercial"
	ContentTypeJingle       ContentType = "jingle"
	ContentTypeAnnouncement ContentType = "announcement"
)

func (t ContentType) String() string {
	return string(t)
}

// Valid checks if the content type is valid
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeSong, ContentTypeCommercial, ContentTypeJingle, ContentTypeAnnouncement:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ContentType
func (t *ContentType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = ContentType(v)
	case []byte:
		*t = ContentType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ContentType", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ContentType
func (t ContentType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ContentType: %s", t)
	}
	return string(t), nil
}

// Content is a catalog item the station can air
type Content struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	Artist          string          `gorm:"type:varchar(255)" json:"artist"`
	Type            ContentType     `gorm:"type:varchar(20);not null;index:idx_contents_type_active,priority:1" json:"type"`
	Genre           string          `gorm:"type:varchar(64);index:idx_contents_genre" json:"genre"`
	DurationSeconds int             `gorm:"not null;default:0" json:"duration_seconds"`
	StorageKey      string          `gorm:"type:varchar(512)" json:"storage_key"`
	IsActive        *bool           `gorm:"not null;default:true;index:idx_contents_type_active,priority:2" json:"is_active"`
	Metadata        json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

func (Content) TableName() string { return "contents" }

// BeforeCreate is called before creating a new record
func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.IsActive == nil {
		c.IsActive = utils.ToPtr(true)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// ContentFilter provides filter fields for repository queries
type ContentFilter struct {
	ID         *uint
	IDs        []uint
	Type       *ContentType
	Genre      *string
	IsActive   *bool
	ExcludeIDs []uint
}
