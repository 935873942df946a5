package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SendStatusSent   = "sent"
	SendStatusFailed = "failed"
)

// Notification is the log row for one outbound email attempt.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	BookingID *uuid.UUID `db:"booking_id" json:"booking_id,omitempty"`
	Template  string     `db:"template" json:"template"`
	Recipient string     `db:"recipient" json:"recipient"`
	Subject   string     `db:"subject" json:"subject"`
	Status    string     `db:"status" json:"status"`
	Error     *string    `db:"error" json:"error,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
