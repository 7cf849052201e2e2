package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stakeholder identifies who a notification was aimed at.
type Stakeholder string

const (
	StakeholderReporter Stakeholder = "reporter"
	StakeholderUploader Stakeholder = "uploader"
	StakeholderOther    Stakeholder = "other"
)

// NotificationChannel identifies the delivery mechanism attempted.
type NotificationChannel string

const (
	ChannelEmail   NotificationChannel = "email"
	ChannelInApp   NotificationChannel = "inapp"
	ChannelWebhook NotificationChannel = "webhook"
)

// NotificationRecord logs a best-effort side-effect attempt. Its absence
// never blocks the action that triggered it; Meta carries success=false for
// failed deliveries.
type NotificationRecord struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NoticeID    *uuid.UUID          `gorm:"type:uuid;index" json:"noticeId,omitempty"`
	DecisionID  *uuid.UUID          `gorm:"type:uuid" json:"decisionId,omitempty"`
	Stakeholder Stakeholder         `gorm:"type:varchar(20);not null" json:"stakeholder"`
	Channel     NotificationChannel `gorm:"type:varchar(20);not null" json:"channel"`
	SentAt      time.Time           `gorm:"autoCreateTime" json:"sentAt"`
	Payload     json.RawMessage     `gorm:"type:jsonb" json:"payload,omitempty"`
	Meta        json.RawMessage     `gorm:"type:jsonb" json:"meta,omitempty"`
}
