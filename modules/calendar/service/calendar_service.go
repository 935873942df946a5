package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fqt-booking-api/core/config"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/core/utils"
	"fqt-booking-api/modules/calendar/dto"
	outboxentity "fqt-booking-api/modules/outbox/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"

// GoogleCalendarService talks to the staff Google Calendar account over the
// v3 REST API. The oauth2 token source owns refresh; no token state leaks
// into package-level variables.
type GoogleCalendarService struct {
	calendarID  string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
}

func NewGoogleCalendarService(cfg config.GoogleConfig) *GoogleCalendarService {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
	}
	base := oauthCfg.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	})

	return &GoogleCalendarService{
		calendarID:  cfg.CalendarID,
		tokenSource: oauth2.ReuseTokenSource(nil, base),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateEvent inserts the event and returns its id plus the Meet link when
// one was requested.
func (s *GoogleCalendarService) CreateEvent(ctx context.Context, spec *outboxentity.CalendarEventSpec) (*dto.CreateEventResponse, error) {
	body := dto.GoogleEventRequest{
		Summary:     spec.Summary,
		Description: spec.Description,
		Location:    spec.Location,
		Start:       dto.GoogleEventDateTime{DateTime: spec.Start.Format(time.RFC3339)},
		End:         dto.GoogleEventDateTime{DateTime: spec.End.Format(time.RFC3339)},
	}
	for _, email := range spec.AttendeeEmails {
		if email == "" {
			continue
		}
		body.Attendees = append(body.Attendees, dto.GoogleEventAttendee{Email: email})
	}
	if spec.CreateMeetLink {
		body.ConferenceData = &dto.GoogleConferenceData{
			CreateRequest: &dto.GoogleCreateConferenceRequest{
				RequestID:             utils.GenerateID(),
				ConferenceSolutionKey: dto.GoogleConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	apiURL := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1&sendUpdates=all",
		googleCalendarAPIBase, url.PathEscape(s.calendarID))

	raw, err := s.do(ctx, http.MethodPost, apiURL, body)
	if err != nil {
		return nil, err
	}

	var created dto.GoogleEventResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		logger.Error("GoogleCalendarService:CreateEvent:Unmarshal", "error", err)
		return nil, fmt.Errorf("failed to parse event response: %w", err)
	}

	logger.Info("GoogleCalendarService:CreateEvent:Success",
		"event_id", created.ID, "meet_link", created.HangoutLink)
	return &dto.CreateEventResponse{
		EventID:  created.ID,
		MeetLink: created.HangoutLink,
	}, nil
}

// DeleteEvent removes the event. A 404 or 410 means it is already gone,
// which cancellation treats as done.
func (s *GoogleCalendarService) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return fmt.Errorf("empty event id")
	}

	apiURL := fmt.Sprintf("%s/calendars/%s/events/%s?sendUpdates=all",
		googleCalendarAPIBase, url.PathEscape(s.calendarID), url.PathEscape(eventID))

	req, err := s.newRequest(ctx, http.MethodDelete, apiURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("GoogleCalendarService:DeleteEvent:DoRequest", "error", err, "event_id", eventID)
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		logger.Info("GoogleCalendarService:DeleteEvent:Success", "event_id", eventID)
		return nil
	case http.StatusNotFound, http.StatusGone:
		logger.Warn("GoogleCalendarService:DeleteEvent:AlreadyGone", "event_id", eventID)
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("GoogleCalendarService:DeleteEvent:APIError",
			"status", resp.StatusCode, "body", string(respBody), "event_id", eventID)
		return fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}
}

func (s *GoogleCalendarService) do(ctx context.Context, method, apiURL string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := s.newRequest(ctx, method, apiURL, reader)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("GoogleCalendarService:do:DoRequest", "error", err, "url", apiURL)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("GoogleCalendarService:do:APIError",
			"status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}

	return respBody, nil
}

func (s *GoogleCalendarService) newRequest(ctx context.Context, method, apiURL string, body io.Reader) (*http.Request, error) {
	token, err := s.tokenSource.Token()
	if err != nil {
		logger.Error("GoogleCalendarService:newRequest:Token", "error", err)
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
