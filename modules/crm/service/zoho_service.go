package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"fqt-booking-api/core/config"
	"fqt-booking-api/core/logger"
	outboxentity "fqt-booking-api/modules/outbox/entity"
)

// ZohoService syncs bookings into Zoho CRM as tasks. The access token lives
// on the client and is refreshed on expiry under the mutex; nothing is
// cached at package level.
type ZohoService struct {
	cfg        config.ZohoConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewZohoService(cfg config.ZohoConfig) *ZohoService {
	return &ZohoService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type zohoTask struct {
	Subject     string `json:"Subject"`
	Status      string `json:"Status"`
	Description string `json:"Description"`
	DueDate     string `json:"Due_Date"`
}

type zohoTasksRequest struct {
	Data []zohoTask `json:"data"`
}

// SyncBooking upserts a CRM task describing the booking. Best-effort by
// contract; the orchestrator owns retries.
func (s *ZohoService) SyncBooking(ctx context.Context, task *outboxentity.CRMTaskSpec) error {
	token, err := s.ensureValidToken(ctx)
	if err != nil {
		return err
	}

	status := "Not Started"
	if task.Status == "cancelled" {
		status = "Deferred"
	}

	body := zohoTasksRequest{Data: []zohoTask{{
		Subject: fmt.Sprintf("%s session: %s @ %s", task.ServiceName, task.VolunteerName, task.CompanyName),
		Status:  status,
		Description: fmt.Sprintf("Booking %s: volunteer %s (%s), host %s, %s %s",
			task.BookingID, task.VolunteerName, task.VolunteerEmail, task.HostEmail, task.Date, task.StartTime),
		DueDate: task.Date,
	}}}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIBaseURL+"/crm/v2/Tasks", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("ZohoService:SyncBooking:DoRequest", "error", err, "booking_id", task.BookingID)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("ZohoService:SyncBooking:APIError",
			"status", resp.StatusCode, "body", string(respBody), "booking_id", task.BookingID)
		return fmt.Errorf("zoho API error: %d", resp.StatusCode)
	}

	logger.Info("ZohoService:SyncBooking:Success", "booking_id", task.BookingID)
	return nil
}

func (s *ZohoService) ensureValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Refresh a minute early to avoid racing the expiry on a slow call.
	if s.accessToken != "" && time.Now().Before(s.expiresAt.Add(-time.Minute)) {
		return s.accessToken, nil
	}

	form := url.Values{}
	form.Set("refresh_token", s.cfg.RefreshToken)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.AccountsURL+"/oauth/v2/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("ZohoService:ensureValidToken:DoRequest", "error", err)
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("ZohoService:ensureValidToken:APIError", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("zoho token refresh error: %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.Error != "" || tokenResp.AccessToken == "" {
		logger.Error("ZohoService:ensureValidToken:TokenError", "zoho_error", tokenResp.Error)
		return "", fmt.Errorf("zoho token refresh failed: %s", tokenResp.Error)
	}

	s.accessToken = tokenResp.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	logger.Info("ZohoService:ensureValidToken:Refreshed", "expires_at", s.expiresAt.Format(time.RFC3339))
	return s.accessToken, nil
}
