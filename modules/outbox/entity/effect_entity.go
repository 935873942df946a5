package entity

import (
	"time"

	"github.com/google/uuid"
)

type EffectType string

const (
	EffectCalendarCreate EffectType = "calendar_create"
	EffectCalendarDelete EffectType = "calendar_delete"
	EffectEmailSend      EffectType = "email_send"
	EffectCRMSync        EffectType = "crm_sync"
)

// CalendarEventSpec describes the event to create. Virtual services request
// a Meet link; in-person services carry a location string instead.
type CalendarEventSpec struct {
	Summary        string    `json:"summary"`
	Description    string    `json:"description,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AttendeeEmails []string  `json:"attendee_emails"`
	Location       string    `json:"location,omitempty"`
	CreateMeetLink bool      `json:"create_meet_link"`
}

type EmailSpec struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Variables map[string]string `json:"variables"`
}

type CRMTaskSpec struct {
	BookingID      uuid.UUID `json:"booking_id"`
	VolunteerName  string    `json:"volunteer_name"`
	VolunteerEmail string    `json:"volunteer_email"`
	HostEmail      string    `json:"host_email,omitempty"`
	CompanyName    string    `json:"company_name"`
	ServiceName    string    `json:"service_name"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	Status         string    `json:"status"`
}

// Effect is one independent external action requested by a booking or a
// cancellation. Exactly one of the payload fields is set, matching Type. The
// struct is JSON-encoded as the asynq retry payload, so it must stay
// self-contained.
type Effect struct {
	ID              string             `json:"id"`
	Type            EffectType         `json:"type"`
	BookingID       uuid.UUID          `json:"booking_id"`
	Calendar        *CalendarEventSpec `json:"calendar,omitempty"`
	CalendarEventID string             `json:"calendar_event_id,omitempty"`
	Email           *EmailSpec         `json:"email,omitempty"`
	CRM             *CRMTaskSpec       `json:"crm,omitempty"`
}

const (
	AttemptStatusSuccess = "success"
	AttemptStatusFailed  = "failed"
)

// EffectAttempt is the persisted outcome of one execution of an effect.
type EffectAttempt struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EffectID   string    `db:"effect_id" json:"effect_id"`
	BookingID  uuid.UUID `db:"booking_id" json:"booking_id"`
	EffectType string    `db:"effect_type" json:"effect_type"`
	Status     string    `db:"status" json:"status"`
	Attempt    int       `db:"attempt" json:"attempt"`
	Error      *string   `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
