package repository

import (
	"context"
	"database/sql"
	"time"

	"fqt-booking-api/core/database"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/slot/entity"

	"github.com/google/uuid"
)

// SlotRepository owns the capacity counter. TryReserve and Release are the
// only statements that touch current_volunteers; both are conditional
// updates so the check and the write are a single atomic operation in
// Postgres, never a read-then-write in Go.
type SlotRepository struct {
	DB database.IDatabase
}

func NewSlotRepository(db database.IDatabase) *SlotRepository {
	return &SlotRepository{DB: db}
}

type SlotRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error)
	ListAvailable(ctx context.Context, companyID, serviceTypeID *uuid.UUID, date *time.Time) ([]entity.Slot, error)
	TryReserve(ctx context.Context, id uuid.UUID) (int64, error)
	Release(ctx context.Context, id uuid.UUID) (int64, error)
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error) {
	query := `
		SELECT id, company_id, service_type_id, slot_date, start_time, end_time,
		       max_volunteers, current_volunteers, active, created_at, updated_at
		FROM slots WHERE id = $1
	`

	var slot entity.Slot
	err := r.DB.GetContext(ctx, &slot, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SlotRepository:GetByID", "error", err)
		return nil, err
	}

	return &slot, nil
}

func (r *SlotRepository) ListAvailable(ctx context.Context, companyID, serviceTypeID *uuid.UUID, date *time.Time) ([]entity.Slot, error) {
	query := `
		SELECT id, company_id, service_type_id, slot_date, start_time, end_time,
		       max_volunteers, current_volunteers, active, created_at, updated_at
		FROM slots
		WHERE active = true
		  AND current_volunteers < max_volunteers
		  AND ($1::uuid IS NULL OR company_id = $1)
		  AND ($2::uuid IS NULL OR service_type_id = $2)
		  AND ($3::date IS NULL OR slot_date = $3)
		ORDER BY slot_date, start_time
	`

	var slots []entity.Slot
	err := r.DB.SelectContext(ctx, &slots, query, companyID, serviceTypeID, date)
	if err != nil {
		logger.Error("SlotRepository:ListAvailable", "error", err)
		return nil, err
	}

	return slots, nil
}

// TryReserve claims one unit of capacity. Returns the affected-row count:
// 1 when the claim succeeded, 0 when the slot is missing, inactive or full.
// Two concurrent callers against the last unit get 1 and 0 respectively,
// decided by the database, so the capacity invariant cannot be oversold.
func (r *SlotRepository) TryReserve(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE slots
		SET current_volunteers = current_volunteers + 1, updated_at = NOW()
		WHERE id = $1
		  AND active = true
		  AND current_volunteers < max_volunteers
	`

	rows, err := r.DB.ExecRowsContext(ctx, query, id)
	if err != nil {
		logger.Error("SlotRepository:TryReserve", "error", err, "slot_id", id)
		return 0, err
	}

	return rows, nil
}

// Release gives one unit back. Guarded against underflow; the caller gates
// double-release through the booking status transition, not here.
func (r *SlotRepository) Release(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE slots
		SET current_volunteers = current_volunteers - 1, updated_at = NOW()
		WHERE id = $1
		  AND current_volunteers > 0
	`

	rows, err := r.DB.ExecRowsContext(ctx, query, id)
	if err != nil {
		logger.Error("SlotRepository:Release", "error", err, "slot_id", id)
		return 0, err
	}

	return rows, nil
}
