package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fqt-booking-api/core/config"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/notification/entity"
	"fqt-booking-api/modules/notification/repository"

	"github.com/google/uuid"
)

// Template names the booking flows send with.
const (
	TemplateBookingConfirmedVolunteer = "booking_confirmed_volunteer"
	TemplateBookingConfirmedHost      = "booking_confirmed_host"
	TemplateBookingCancelledVolunteer = "booking_cancelled_volunteer"
	TemplateBookingCancelledHost      = "booking_cancelled_host"
	TemplateHostReassigned            = "host_reassigned"
)

type mailTemplate struct {
	Subject string
	Body    string
}

var templates = map[string]mailTemplate{
	TemplateBookingConfirmedVolunteer: {
		Subject: "Your session on {{date}} is confirmed",
		Body: "Hi {{volunteer_name}},\n\nYour {{service_name}} session with {{company_name}} on {{date}} " +
			"from {{start_time}} to {{end_time}} is confirmed.\n{{meet_line}}\n{{manage_line}}\nSee you there!",
	},
	TemplateBookingConfirmedHost: {
		Subject: "New booking: {{service_name}} on {{date}}",
		Body: "Hi,\n\n{{volunteer_name}} ({{volunteer_email}}) booked a {{service_name}} session with " +
			"{{company_name}} on {{date}} from {{start_time}} to {{end_time}}. You are the assigned host.",
	},
	TemplateBookingCancelledVolunteer: {
		Subject: "Your session on {{date}} was cancelled",
		Body: "Hi {{volunteer_name}},\n\nYour {{service_name}} session on {{date}} has been cancelled." +
			"\nReason: {{reason}}",
	},
	TemplateBookingCancelledHost: {
		Subject: "Booking cancelled: {{service_name}} on {{date}}",
		Body: "The booking by {{volunteer_name}} for {{service_name}} on {{date}} was cancelled." +
			"\nReason: {{reason}}",
	},
	TemplateHostReassigned: {
		Subject: "Host change: {{service_name}} on {{date}}",
		Body: "The {{service_name}} booking by {{volunteer_name}} on {{date}} has been reassigned " +
			"from {{old_host}} to {{new_host}}.",
	},
}

// MailerService renders a template and posts it to the transactional mail
// API. Every attempt, success or failure, lands in the notifications log.
type MailerService struct {
	cfg        config.MailConfig
	repo       repository.NotificationRepositoryInterface
	httpClient *http.Client
}

func NewMailerService(cfg config.MailConfig, repo repository.NotificationRepositoryInterface) *MailerService {
	return &MailerService{
		cfg:        cfg,
		repo:       repo,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	TextBody    string `json:"text_body"`
}

func (s *MailerService) Send(ctx context.Context, template, recipient string, variables map[string]string) error {
	tmpl, ok := templates[template]
	if !ok {
		return fmt.Errorf("unknown mail template %q", template)
	}

	subject := render(tmpl.Subject, variables)
	body := render(tmpl.Body, variables)

	err := s.post(ctx, recipient, subject, body)
	s.logSend(ctx, template, recipient, subject, variables, err)
	if err != nil {
		logger.Error("MailerService:Send:Failed", "template", template, "recipient", recipient, "error", err)
		return err
	}

	logger.Info("MailerService:Send:Success", "template", template, "recipient", recipient)
	return nil
}

func (s *MailerService) post(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		FromAddress: s.cfg.FromAddress,
		FromName:    s.cfg.FromName,
		To:          recipient,
		Subject:     subject,
		TextBody:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail API error: %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (s *MailerService) logSend(ctx context.Context, template, recipient, subject string, variables map[string]string, sendErr error) {
	notif := &entity.Notification{
		Template:  template,
		Recipient: recipient,
		Subject:   subject,
		Status:    entity.SendStatusSent,
	}
	if raw, ok := variables["booking_id"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			notif.BookingID = &id
		}
	}
	if sendErr != nil {
		notif.Status = entity.SendStatusFailed
		msg := sendErr.Error()
		notif.Error = &msg
	}

	if err := s.repo.Create(ctx, notif); err != nil {
		logger.Error("MailerService:logSend", "error", err, "recipient", recipient)
	}
}

func render(tmpl string, variables map[string]string) string {
	out := tmpl
	for key, value := range variables {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
