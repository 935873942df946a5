package dto

// CreateEventResponse carries the identifiers the booking must keep so the
// event can be retracted on cancellation.
type CreateEventResponse struct {
	EventID  string `json:"event_id"`
	MeetLink string `json:"meet_link,omitempty"`
}

// Google Calendar API wire types (events insert).
type (
	GoogleEventDateTime struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone,omitempty"`
	}

	GoogleEventAttendee struct {
		Email string `json:"email"`
	}

	GoogleConferenceSolutionKey struct {
		Type string `json:"type"`
	}

	GoogleCreateConferenceRequest struct {
		RequestID             string                      `json:"requestId"`
		ConferenceSolutionKey GoogleConferenceSolutionKey `json:"conferenceSolutionKey"`
	}

	GoogleConferenceData struct {
		CreateRequest *GoogleCreateConferenceRequest `json:"createRequest,omitempty"`
	}

	GoogleEventRequest struct {
		Summary        string                `json:"summary"`
		Description    string                `json:"description,omitempty"`
		Location       string                `json:"location,omitempty"`
		Start          GoogleEventDateTime   `json:"start"`
		End            GoogleEventDateTime   `json:"end"`
		Attendees      []GoogleEventAttendee `json:"attendees,omitempty"`
		ConferenceData *GoogleConferenceData `json:"conferenceData,omitempty"`
	}

	GoogleEventResponse struct {
		ID          string `json:"id"`
		HangoutLink string `json:"hangoutLink"`
		Status      string `json:"status"`
	}
)
