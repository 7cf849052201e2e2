package model

import (
	"time"

	"github.com/google/uuid"
)

// DecisionOutcome is the fixed vocabulary of moderator rulings.
type DecisionOutcome string

const (
	OutcomeNoAction          DecisionOutcome = "NO_ACTION"
	OutcomeContentRemoved    DecisionOutcome = "CONTENT_REMOVED"
	OutcomeContentRestricted DecisionOutcome = "CONTENT_RESTRICTED"
	OutcomeAccountWarned     DecisionOutcome = "ACCOUNT_WARNED"
	OutcomeAccountSuspended  DecisionOutcome = "ACCOUNT_SUSPENDED"

	// OutcomeForwardedToAuthority places the case under legal hold: the
	// retention job never deletes a notice carrying this outcome.
	OutcomeForwardedToAuthority DecisionOutcome = "FORWARDED_TO_AUTHORITY"
)

// Valid reports whether o is a known outcome value.
func (o DecisionOutcome) Valid() bool {
	switch o {
	case OutcomeNoAction, OutcomeContentRemoved, OutcomeContentRestricted,
		OutcomeAccountWarned, OutcomeAccountSuspended, OutcomeForwardedToAuthority:
		return true
	default:
		return false
	}
}

// LegalHold reports whether o exempts the case from retention deletion.
func (o DecisionOutcome) LegalHold() bool {
	return o == OutcomeForwardedToAuthority
}

// Decision is a moderator ruling on a Notice. Multiple decisions may
// accumulate per notice; the one with the latest DecidedAt is authoritative.
type Decision struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NoticeID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"noticeId"`
	Outcome       DecisionOutcome `gorm:"type:varchar(40);not null" json:"outcome"`
	LegalBasis    *string         `gorm:"type:text" json:"legalBasis,omitempty"`
	TosBasis      *string         `gorm:"type:text" json:"tosBasis,omitempty"`
	AutomatedUsed bool            `gorm:"not null;default:false" json:"automatedUsed"`
	DecidedBy     string          `gorm:"type:varchar(255);not null" json:"decidedBy"`
	DecidedAt     time.Time       `gorm:"not null" json:"decidedAt"`
	Statement     *string         `gorm:"type:text" json:"statement,omitempty"`

	Notice *Notice `gorm:"foreignKey:NoticeID" json:"notice,omitempty"`
}
