package model

import (
	"time"

	"github.com/google/uuid"
)

// NoticeStatus is the forward-only review state of a Notice.
type NoticeStatus string

const (
	NoticeReceived    NoticeStatus = "RECEIVED"
	NoticeUnderReview NoticeStatus = "UNDER_REVIEW"
	NoticeDecided     NoticeStatus = "DECIDED"
)

// rank orders statuses so transitions can only move forward.
func (s NoticeStatus) rank() int {
	switch s {
	case NoticeReceived:
		return 0
	case NoticeUnderReview:
		return 1
	case NoticeDecided:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status value.
func (s NoticeStatus) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether moving from s to next respects the
// RECEIVED -> UNDER_REVIEW -> DECIDED ordering. Staying in place is not a
// transition.
func (s NoticeStatus) CanTransitionTo(next NoticeStatus) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// Notice is a formal report requiring a moderator Decision. The reported
// content fields are an immutable snapshot taken at intake time.
type Notice struct {
	ID                  uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContentID           string       `gorm:"type:varchar(255);not null" json:"contentId"`
	ContentURL          *string      `gorm:"type:text" json:"contentUrl,omitempty"`
	Category            *string      `gorm:"type:varchar(100)" json:"category,omitempty"`
	ReasonText          *string      `gorm:"type:text" json:"reasonText,omitempty"`
	ReporterEmail       *string      `gorm:"type:varchar(320)" json:"reporterEmail,omitempty"`
	ReporterName        *string      `gorm:"type:varchar(255)" json:"reporterName,omitempty"`
	TruthAffirmation    *bool        `json:"truthAffirmation,omitempty"`
	ReportedContentType string       `gorm:"type:varchar(100);not null" json:"reportedContentType"`
	ReportedContent     string       `gorm:"type:text" json:"reportedContent"`
	Status              NoticeStatus `gorm:"type:varchar(20);not null;default:'RECEIVED'" json:"status"`
	PublicToken         string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	TokenCreatedAt      time.Time    `gorm:"autoCreateTime" json:"-"`
	CreatedAt           time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}
