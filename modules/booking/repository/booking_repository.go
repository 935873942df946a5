package repository

import (
	"context"
	"database/sql"
	"time"

	"fqt-booking-api/core/database"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/booking/entity"

	"github.com/google/uuid"
)

type BookingRepository struct {
	DB database.IDatabase
}

func NewBookingRepository(db database.IDatabase) *BookingRepository {
	return &BookingRepository{DB: db}
}

type BookingRepositoryInterface interface {
	Create(ctx context.Context, booking *entity.Booking) (*entity.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (int64, error)
	SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID, meetLink string) error
	UpdateHostEmail(ctx context.Context, id uuid.UUID, hostEmail string) error
	CountConfirmedByHost(ctx context.Context, date time.Time) (map[string]int, error)
}

const bookingColumns = `
	id, slot_id, volunteer_name, volunteer_email, volunteer_phone, office,
	host_email, google_event_id, meet_link, status, cancelled_at,
	cancellation_reason, created_at, updated_at
`

func (r *BookingRepository) Create(ctx context.Context, booking *entity.Booking) (*entity.Booking, error) {
	query := `
		INSERT INTO bookings (slot_id, volunteer_name, volunteer_email, volunteer_phone, office, host_email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + bookingColumns

	var created entity.Booking
	err := r.DB.GetContext(ctx, &created, query,
		booking.SlotID, booking.VolunteerName, booking.VolunteerEmail,
		booking.VolunteerPhone, booking.Office, booking.HostEmail, booking.Status)
	if err != nil {
		logger.Error("BookingRepository:Create", "error", err, "slot_id", booking.SlotID)
		return nil, err
	}

	return &created, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking entity.Booking
	err := r.DB.GetContext(ctx, &booking, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("BookingRepository:GetByID", "error", err)
		return nil, err
	}

	return &booking, nil
}

// MarkCancelled flips confirmed to cancelled. The WHERE status guard makes
// the transition happen at most once, which is what gates the capacity
// release against retried cancellations.
func (r *BookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW(), cancellation_reason = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
	`

	rows, err := r.DB.ExecRowsContext(ctx, query, id, reason)
	if err != nil {
		logger.Error("BookingRepository:MarkCancelled", "error", err, "booking_id", id)
		return 0, err
	}

	return rows, nil
}

func (r *BookingRepository) SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID, meetLink string) error {
	query := `
		UPDATE bookings
		SET google_event_id = $2, meet_link = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1
	`

	err := r.DB.ExecContext(ctx, query, id, eventID, meetLink)
	if err != nil {
		logger.Error("BookingRepository:SetCalendarEvent", "error", err, "booking_id", id)
		return err
	}

	return nil
}

func (r *BookingRepository) UpdateHostEmail(ctx context.Context, id uuid.UUID, hostEmail string) error {
	query := `UPDATE bookings SET host_email = $2, updated_at = NOW() WHERE id = $1`

	err := r.DB.ExecContext(ctx, query, id, hostEmail)
	if err != nil {
		logger.Error("BookingRepository:UpdateHostEmail", "error", err, "booking_id", id)
		return err
	}

	return nil
}

// CountConfirmedByHost returns the confirmed-booking load per host for one
// date, across all slots on that date.
func (r *BookingRepository) CountConfirmedByHost(ctx context.Context, date time.Time) (map[string]int, error) {
	query := `
		SELECT b.host_email, COUNT(*) AS cnt
		FROM bookings b
		JOIN slots s ON s.id = b.slot_id
		WHERE s.slot_date = $1 AND b.status = 'confirmed' AND b.host_email <> ''
		GROUP BY b.host_email
	`

	rows, err := r.DB.QueryContext(ctx, query, date)
	if err != nil {
		logger.Error("BookingRepository:CountConfirmedByHost", "error", err)
		return nil, err
	}
	defer rows.Close()

	loads := make(map[string]int)
	for rows.Next() {
		var hostEmail string
		var count int
		if err := rows.Scan(&hostEmail, &count); err != nil {
			return nil, err
		}
		loads[hostEmail] = count
	}

	return loads, rows.Err()
}
