package entity

import (
	"time"

	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/entity"

	"github.com/google/uuid"
)

// Booking is a volunteer's claim on one unit of a slot's capacity. The sum
// of confirmed bookings for a slot always equals its current_volunteers;
// both sides of that equation move together through BookingService and the
// cancellation workflow, never independently.
type Booking struct {
	SlotID             uuid.UUID  `db:"slot_id" json:"slot_id"`
	VolunteerName      string     `db:"volunteer_name" json:"volunteer_name"`
	VolunteerEmail     string     `db:"volunteer_email" json:"volunteer_email"`
	VolunteerPhone     string     `db:"volunteer_phone" json:"volunteer_phone,omitempty"`
	Office             *string    `db:"office" json:"office,omitempty"`
	HostEmail          string     `db:"host_email" json:"host_email,omitempty"`
	GoogleEventID      *string    `db:"google_event_id" json:"google_event_id,omitempty"`
	MeetLink           *string    `db:"meet_link" json:"meet_link,omitempty"`
	Status             string     `db:"status" json:"status"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	entity.BaseEntity
}

func (b *Booking) IsCancelled() bool {
	return b.Status == constants.BookingStatusCancelled
}

func (b *Booking) HasHost() bool {
	return b.HostEmail != ""
}
