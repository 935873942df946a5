package entity

import (
	"time"

	"github.com/google/uuid"

	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/entity"
)

// Company is a partner company offering bookable slots.
type Company struct {
	Name         string `db:"name" json:"name"`
	Address      string `db:"address" json:"address"`
	ContactEmail string `db:"contact_email" json:"contact_email"`
	Active       bool   `db:"active" json:"active"`
	entity.BaseEntity
}

// ServiceType describes one kind of volunteering session. Kind decides
// whether bookings need an office (in_person) or a meeting link (virtual).
type ServiceType struct {
	Name            string `db:"name" json:"name"`
	Kind            string `db:"kind" json:"kind"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
	Active          bool   `db:"active" json:"active"`
	entity.BaseEntity
}

// ServiceHost is one staff member in the host pool for a service type.
type ServiceHost struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ServiceTypeID uuid.UUID `db:"service_type_id" json:"service_type_id"`
	HostEmail     string    `db:"host_email" json:"host_email"`
	DisplayName   string    `db:"display_name" json:"display_name"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (s *ServiceType) IsVirtual() bool {
	return s.Kind == constants.ServiceKindVirtual
}
