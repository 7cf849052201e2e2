package model

import (
	"time"

	"github.com/google/uuid"
)

// AppealOutcome is the result of an admin appeal review.
type AppealOutcome string

const (
	AppealUpheld     AppealOutcome = "UPHELD"
	AppealOverturned AppealOutcome = "OVERTURNED"
)

func (o AppealOutcome) Valid() bool {
	return o == AppealUpheld || o == AppealOverturned
}

// Appeal contests a Decision. Outcome stays nil while the appeal is pending.
type Appeal struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DecisionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"decisionId"`
	FiledBy    string         `gorm:"type:varchar(320);not null" json:"filedBy"`
	FiledAt    time.Time      `gorm:"autoCreateTime" json:"filedAt"`
	Arguments  string         `gorm:"type:text;not null" json:"arguments"`
	Outcome    *AppealOutcome `gorm:"type:varchar(20)" json:"outcome,omitempty"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
	Reviewer   *string        `gorm:"type:varchar(255)" json:"reviewer,omitempty"`

	Decision *Decision `gorm:"foreignKey:DecisionID" json:"decision,omitempty"`
}
