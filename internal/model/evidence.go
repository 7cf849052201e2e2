package model

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceType discriminates how a piece of evidence is stored.
type EvidenceType string

const (
	EvidenceFile EvidenceType = "file"
	EvidenceURL  EvidenceType = "url"
	EvidenceHash EvidenceType = "hash"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceFile, EvidenceURL, EvidenceHash:
		return true
	default:
		return false
	}
}

// Evidence is a file, URL or hash attached to a Notice. FilePath holds only
// a server-generated basename inside the evidence root, never a
// caller-controlled path.
type Evidence struct {
	ID       uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NoticeID uuid.UUID    `gorm:"type:uuid;not null;index" json:"noticeId"`
	Type     EvidenceType `gorm:"type:varchar(10);not null" json:"type"`
	URL      *string      `gorm:"type:text" json:"url,omitempty"`
	Hash     *string      `gorm:"type:varchar(255)" json:"hash,omitempty"`
	FileName *string      `gorm:"type:varchar(255)" json:"fileName,omitempty"`
	FilePath *string      `gorm:"type:varchar(255)" json:"-"`
	AddedAt  time.Time    `gorm:"autoCreateTime" json:"addedAt"`
}
