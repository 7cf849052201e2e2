package dto

import "github.com/veilpost/dsa-core/internal/model"

// UpdateNoticeStatusRequest moves a notice forward in review.
type UpdateNoticeStatusRequest struct {
	Status model.NoticeStatus `json:"status" binding:"required"`
}

// CreateDecisionRequest records a moderator ruling on a notice.
type CreateDecisionRequest struct {
	Outcome       model.DecisionOutcome `json:"outcome" binding:"required"`
	LegalBasis    *string               `json:"legalBasis,omitempty" binding:"omitempty,max=10000"`
	TosBasis      *string               `json:"tosBasis,omitempty" binding:"omitempty,max=10000"`
	AutomatedUsed bool                  `json:"automatedUsed"`
	Statement     *string               `json:"statement,omitempty" binding:"omitempty,max=20000"`
}

// ResolveAppealRequest closes a pending appeal.
type ResolveAppealRequest struct {
	Outcome model.AppealOutcome `json:"outcome" binding:"required"`
}

// RecordNotificationRequest lets the content backend report a notification
// it delivered on our behalf, keeping the side-effect log complete.
type RecordNotificationRequest struct {
	NoticeID    *string                   `json:"noticeId,omitempty" binding:"omitempty,uuid"`
	DecisionID  *string                   `json:"decisionId,omitempty" binding:"omitempty,uuid"`
	Stakeholder model.Stakeholder         `json:"stakeholder" binding:"required"`
	Channel     model.NotificationChannel `json:"channel" binding:"required"`
	Payload     map[string]interface{}    `json:"payload,omitempty"`
	Meta        map[string]interface{}    `json:"meta,omitempty"`
}

// NoticeStatsResponse summarizes the notice workload.
type NoticeStatsResponse struct {
	Total     int64                        `json:"total"`
	ByStatus  map[model.NoticeStatus]int64 `json:"byStatus"`
	Decisions int64                        `json:"decisions"`
}

// SignalStatsResponse summarizes signal volume.
type SignalStatsResponse struct {
	Total     int64 `json:"total"`
	Dismissed int64 `json:"dismissed"`
	Open      int64 `json:"open"`
}
