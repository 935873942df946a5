package repository

import (
	"context"

	"fqt-booking-api/core/database"
	coreentity "fqt-booking-api/core/entity"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/outbox/entity"

	"github.com/google/uuid"
)

// EffectRepository stores the outcome of every side-effect execution so
// failed calendar/email/CRM calls stay queryable after the fact.
type EffectRepository struct {
	DB database.IDatabase
}

func NewEffectRepository(db database.IDatabase) *EffectRepository {
	return &EffectRepository{DB: db}
}

type EffectRepositoryInterface interface {
	RecordAttempt(ctx context.Context, attempt *entity.EffectAttempt) error
	ListByBookingID(ctx context.Context, bookingID uuid.UUID, pageNumber, pageSize int) (*coreentity.Pagination[entity.EffectAttempt], error)
}

func (r *EffectRepository) RecordAttempt(ctx context.Context, attempt *entity.EffectAttempt) error {
	query := `
		INSERT INTO effect_attempts (effect_id, booking_id, effect_type, status, attempt, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := r.DB.ExecContext(ctx, query,
		attempt.EffectID, attempt.BookingID, attempt.EffectType,
		attempt.Status, attempt.Attempt, attempt.Error)
	if err != nil {
		logger.Error("EffectRepository:RecordAttempt", "error", err, "effect_id", attempt.EffectID)
		return err
	}

	return nil
}

func (r *EffectRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID, pageNumber, pageSize int) (*coreentity.Pagination[entity.EffectAttempt], error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	countQuery := `SELECT COUNT(*) FROM effect_attempts WHERE booking_id = $1`
	var total int
	if err := r.DB.GetContext(ctx, &total, countQuery, bookingID); err != nil {
		logger.Error("EffectRepository:ListByBookingID:Count", "error", err)
		return nil, err
	}

	query := `
		SELECT id, effect_id, booking_id, effect_type, status, attempt, error, created_at
		FROM effect_attempts
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var attempts []entity.EffectAttempt
	err := r.DB.SelectContext(ctx, &attempts, query, bookingID, pageSize, (pageNumber-1)*pageSize)
	if err != nil {
		logger.Error("EffectRepository:ListByBookingID", "error", err)
		return nil, err
	}

	return coreentity.NewPagination(attempts, total, pageNumber, pageSize), nil
}
