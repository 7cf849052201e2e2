package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
)

// ContentClient creates in-app notifications for the content owner via the
// content-serving backend.
type ContentClient interface {
	CreateNotification(ctx context.Context, contentID string, payload map[string]interface{}) error
}

// Mailer delivers reporter emails through the SMTP collaborator.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotifyService emits best-effort side-effect notifications on case
// lifecycle events. Methods return nothing: delivery failures are recorded
// with meta.success=false and logged, never propagated, and the triggering
// action is never rolled back or retried.
type NotifyService interface {
	SignalCreated(ctx context.Context, signal *model.Signal)
	NoticeCreated(ctx context.Context, notice *model.Notice)
	DecisionRecorded(ctx context.Context, notice *model.Notice, decision *model.Decision)
	AppealFiled(ctx context.Context, notice *model.Notice, appeal *model.Appeal)
	AppealResolved(ctx context.Context, notice *model.Notice, appeal *model.Appeal)
	// RecordExternal logs a notification delivered by a collaborator on our
	// behalf, keeping the side-effect log complete.
	RecordExternal(ctx context.Context, record *model.NotificationRecord) error
}

type notifyService struct {
	repo    repository.NotificationRepository
	content ContentClient
	mailer  Mailer
	timeout time.Duration
}

func NewNotifyService(repo repository.NotificationRepository, content ContentClient, mailer Mailer, timeout time.Duration) NotifyService {
	return &notifyService{
		repo:    repo,
		content: content,
		mailer:  mailer,
		timeout: timeout,
	}
}

func (s *notifyService) SignalCreated(ctx context.Context, signal *model.Signal) {
	s.notifyOwner(ctx, nil, nil, signal.ContentID, map[string]interface{}{
		"event":     "signal_created",
		"contentId": signal.ContentID,
	})
}

func (s *notifyService) NoticeCreated(ctx context.Context, notice *model.Notice) {
	payload := map[string]interface{}{
		"event":     "notice_created",
		"contentId": notice.ContentID,
	}
	s.notifyOwner(ctx, &notice.ID, nil, notice.ContentID, payload)
	s.notifyReporter(ctx, notice, nil, "Your report was received",
		"Your report has been registered and will be reviewed.")
}

func (s *notifyService) DecisionRecorded(ctx context.Context, notice *model.Notice, decision *model.Decision) {
	payload := map[string]interface{}{
		"event":     "decision_recorded",
		"contentId": notice.ContentID,
		"outcome":   decision.Outcome,
	}
	s.notifyOwner(ctx, &notice.ID, &decision.ID, notice.ContentID, payload)
	s.notifyReporter(ctx, notice, &decision.ID, "A decision was made on your report",
		fmt.Sprintf("The review of your report has concluded with outcome %s.", decision.Outcome))
}

func (s *notifyService) AppealFiled(ctx context.Context, notice *model.Notice, appeal *model.Appeal) {
	s.notifyOwner(ctx, &notice.ID, &appeal.DecisionID, notice.ContentID, map[string]interface{}{
		"event":     "appeal_filed",
		"contentId": notice.ContentID,
		"appealId":  appeal.ID,
	})
}

func (s *notifyService) AppealResolved(ctx context.Context, notice *model.Notice, appeal *model.Appeal) {
	payload := map[string]interface{}{
		"event":    "appeal_resolved",
		"appealId": appeal.ID,
	}
	if appeal.Outcome != nil {
		payload["outcome"] = *appeal.Outcome
	}
	s.notifyOwner(ctx, &notice.ID, &appeal.DecisionID, notice.ContentID, payload)
	s.notifyReporter(ctx, notice, &appeal.DecisionID, "An appeal on your report was resolved",
		"The appeal filed against the decision on your report has been resolved.")
}

func (s *notifyService) RecordExternal(ctx context.Context, record *model.NotificationRecord) error {
	return s.repo.Create(ctx, record)
}

func (s *notifyService) notifyOwner(ctx context.Context, noticeID, decisionID *uuid.UUID, contentID string, payload map[string]interface{}) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var deliveryErr error
	if s.content != nil {
		deliveryErr = s.content.CreateNotification(cctx, contentID, payload)
	}
	s.record(ctx, noticeID, decisionID, model.StakeholderUploader, model.ChannelInApp, payload, deliveryErr)
}

func (s *notifyService) notifyReporter(ctx context.Context, notice *model.Notice, decisionID *uuid.UUID, subject, body string) {
	if notice.ReporterEmail == nil || *notice.ReporterEmail == "" {
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var deliveryErr error
	if s.mailer != nil {
		deliveryErr = s.mailer.Send(cctx, *notice.ReporterEmail, subject, body)
	}
	s.record(ctx, &notice.ID, decisionID, model.StakeholderReporter, model.ChannelEmail,
		map[string]interface{}{"subject": subject}, deliveryErr)
}

func (s *notifyService) record(ctx context.Context, noticeID, decisionID *uuid.UUID, stakeholder model.Stakeholder, channel model.NotificationChannel, payload map[string]interface{}, deliveryErr error) {
	meta := map[string]interface{}{"success": deliveryErr == nil}
	if deliveryErr != nil {
		meta["error"] = deliveryErr.Error()
		log.Printf("notification delivery failed (%s/%s): %v", stakeholder, channel, deliveryErr)
	}

	record := &model.NotificationRecord{
		NoticeID:    noticeID,
		DecisionID:  decisionID,
		Stakeholder: stakeholder,
		Channel:     channel,
	}
	if raw, err := json.Marshal(payload); err == nil {
		record.Payload = raw
	}
	if raw, err := json.Marshal(meta); err == nil {
		record.Meta = raw
	}

	if err := s.repo.Create(ctx, record); err != nil {
		log.Printf("notification record insert failed: %v", err)
	}
}

// httpContentClient talks to the content-serving backend's internal
// notification-creation endpoint.
type httpContentClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPContentClient(baseURL string, timeout time.Duration) ContentClient {
	if baseURL == "" {
		return nil
	}
	return &httpContentClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpContentClient) CreateNotification(ctx context.Context, contentID string, payload map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"contentId": contentID,
		"payload":   payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("content backend returned %d", resp.StatusCode)
	}
	return nil
}

// smtpMailer is a thin wrapper over the SMTP collaborator.
type smtpMailer struct {
	addr string
	from string
}

func NewSMTPMailer(host, port, from string) Mailer {
	if host == "" {
		return nil
	}
	return &smtpMailer{addr: host + ":" + port, from: from}
}

func (m *smtpMailer) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}
