package dto

import "github.com/veilpost/dsa-core/internal/model"

// CaseStatusResponse is the public view of a case looked up by token.
// Exactly one of Notice or Signal is set, discriminated by EntityType.
type CaseStatusResponse struct {
	EntityType string                `json:"entityType"`
	Notice     *model.Notice         `json:"notice,omitempty"`
	Signal     *model.Signal         `json:"signal,omitempty"`
	Decision   *model.Decision       `json:"decision,omitempty"`
	Evidence   []model.Evidence      `json:"evidence"`
	Appeals    []model.Appeal        `json:"appeals"`
	Audit      []model.AuditLogEntry `json:"audit"`
}

// FileAppealRequest files an appeal against the authoritative decision of
// the token's notice.
type FileAppealRequest struct {
	Arguments string `json:"arguments" binding:"required,min=10,max=20000"`
	FiledBy   string `json:"filedBy" binding:"required,max=320"`
}

// AddURLEvidenceRequest attaches a bare URL as evidence.
type AddURLEvidenceRequest struct {
	URL string `json:"url" binding:"required,max=2048"`
}

// CreatedResponse is the minimal 201 body.
type CreatedResponse struct {
	ID string `json:"id"`
}
