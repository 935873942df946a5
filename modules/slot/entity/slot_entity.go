package entity

import (
	"time"

	"fqt-booking-api/core/entity"

	"github.com/google/uuid"
)

// Slot is one bookable (company, service, date, time-range) unit.
// current_volunteers is only ever mutated through the conditional updates in
// SlotRepository, which is what keeps 0 <= current <= max under concurrency.
type Slot struct {
	CompanyID         uuid.UUID `db:"company_id" json:"company_id"`
	ServiceTypeID     uuid.UUID `db:"service_type_id" json:"service_type_id"`
	Date              time.Time `db:"slot_date" json:"date"`
	StartTime         string    `db:"start_time" json:"start_time"`
	EndTime           string    `db:"end_time" json:"end_time"`
	MaxVolunteers     int       `db:"max_volunteers" json:"max_volunteers"`
	CurrentVolunteers int       `db:"current_volunteers" json:"current_volunteers"`
	Active            bool      `db:"active" json:"active"`
	entity.BaseEntity
}

func (s *Slot) Remaining() int {
	return s.MaxVolunteers - s.CurrentVolunteers
}

func (s *Slot) IsFull() bool {
	return s.CurrentVolunteers >= s.MaxVolunteers
}

// StartsAt combines the slot date with its HH:MM start time in the given
// location. Falls back to midnight when the time string is malformed.
func (s *Slot) StartsAt(loc *time.Location) time.Time {
	return combine(s.Date, s.StartTime, loc)
}

func (s *Slot) EndsAt(loc *time.Location) time.Time {
	return combine(s.Date, s.EndTime, loc)
}

func combine(date time.Time, hhmm string, loc *time.Location) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
