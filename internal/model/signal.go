package model

import (
	"time"

	"github.com/google/uuid"
)

// Signal is an informal, low-friction content report. It never transitions
// state; everything except DismissedAt is immutable after creation.
type Signal struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContentID           string     `gorm:"type:varchar(255);not null" json:"contentId"`
	ContentURL          *string    `gorm:"type:text" json:"contentUrl,omitempty"`
	Category            *string    `gorm:"type:varchar(100)" json:"category,omitempty"`
	ReasonText          *string    `gorm:"type:text" json:"reasonText,omitempty"`
	ReportedContentType string     `gorm:"type:varchar(100);not null" json:"reportedContentType"`
	ReportedContent     string     `gorm:"type:text" json:"reportedContent"`
	PublicToken         string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	DismissedAt         *time.Time `json:"dismissedAt,omitempty"`
}
