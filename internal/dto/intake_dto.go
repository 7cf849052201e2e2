package dto

// CreateSignalRequest is the service-to-service payload for an anonymous
// quick report.
type CreateSignalRequest struct {
	ContentID           string  `json:"contentId" binding:"required,max=255"`
	ContentURL          *string `json:"contentUrl,omitempty" binding:"omitempty,url,max=2048"`
	Category            *string `json:"category,omitempty" binding:"omitempty,max=100"`
	ReasonText          *string `json:"reasonText,omitempty" binding:"omitempty,max=10000"`
	ReportedContentType string  `json:"reportedContentType" binding:"required,max=100"`
	ReportedContent     string  `json:"reportedContent"`
}

// CreateNoticeRequest is the service-to-service payload for a formal notice.
type CreateNoticeRequest struct {
	ContentID           string  `json:"contentId" binding:"required,max=255"`
	ContentURL          *string `json:"contentUrl,omitempty" binding:"omitempty,url,max=2048"`
	Category            *string `json:"category,omitempty" binding:"omitempty,max=100"`
	ReasonText          *string `json:"reasonText,omitempty" binding:"omitempty,max=10000"`
	ReporterEmail       *string `json:"reporterEmail,omitempty" binding:"omitempty,email,max=320"`
	ReporterName        *string `json:"reporterName,omitempty" binding:"omitempty,max=255"`
	TruthAffirmation    *bool   `json:"truthAffirmation,omitempty"`
	ReportedContentType string  `json:"reportedContentType" binding:"required,max=100"`
	ReportedContent     string  `json:"reportedContent"`
}

// IntakeResponse is returned for both signal and notice creation.
type IntakeResponse struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	StatusURL string `json:"statusUrl"`
}
