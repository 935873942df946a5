package service

import (
	"context"
	"fmt"
	"time"

	"fqt-booking-api/core/cache"
	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/errors"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/slot/dto"
	"fqt-booking-api/modules/slot/entity"
	"fqt-booking-api/modules/slot/repository"

	"github.com/google/uuid"
)

// SlotService is the ledger boundary every other component goes through to
// read or mutate slot capacity.
type SlotService struct {
	repo  repository.SlotRepositoryInterface
	cache cache.Cache
}

func NewSlotService(repo repository.SlotRepositoryInterface, c cache.Cache) *SlotService {
	return &SlotService{repo: repo, cache: c}
}

func (s *SlotService) GetByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error) {
	return s.repo.GetByID(ctx, id)
}

// Reserve atomically claims one unit of the slot's capacity. On a zero
// affected-row count the slot is re-read once to tell the caller which of
// not-found / inactive / full happened; the distinction is advisory, the
// rejection itself already took place in the conditional update.
func (s *SlotService) Reserve(ctx context.Context, id uuid.UUID) (*entity.Slot, *errors.AppError) {
	rows, err := s.repo.TryReserve(ctx, id)
	if err != nil {
		logger.Error("SlotService:Reserve:TryReserve:Error", "error", err, "slot_id", id)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to reserve slot", err)
	}

	if rows == 0 {
		slot, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load slot", err)
		}
		if slot == nil {
			return nil, errors.NewAppError(errors.ErrNotFound, "slot not found", nil)
		}
		if !slot.Active {
			return nil, errors.NewAppError(errors.ErrSlotInactive, "slot is no longer open for booking", nil)
		}
		logger.Info("SlotService:Reserve:SlotFull", "slot_id", id, "max_volunteers", slot.MaxVolunteers)
		return nil, errors.NewAppError(errors.ErrSlotFull, "slot is fully booked", nil)
	}

	slot, err := s.repo.GetByID(ctx, id)
	if err != nil || slot == nil {
		// The claim already happened. The caller gets an error and holds
		// no token to release, so give the unit back here rather than
		// strand it.
		logger.Error("SlotService:Reserve:Reload:Error", "error", err, "slot_id", id)
		if _, relErr := s.repo.Release(ctx, id); relErr != nil {
			logger.Error("SlotService:Reserve:ReleaseAfterReloadFailure:Error", "error", relErr, "slot_id", id)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load reserved slot", err)
	}

	s.invalidateListing(ctx, slot)
	logger.Info("SlotService:Reserve:Success", "slot_id", id, "current_volunteers", slot.CurrentVolunteers)
	return slot, nil
}

// Release returns one previously reserved unit. Safe to call from recovery
// paths: the statement refuses to underflow, and callers gate duplicates by
// the booking status transition.
func (s *SlotService) Release(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.Release(ctx, id)
	if err != nil {
		logger.Error("SlotService:Release:Error", "error", err, "slot_id", id)
		return err
	}
	if rows == 0 {
		logger.Warn("SlotService:Release:NoRows", "slot_id", id)
		return nil
	}

	if slot, err := s.repo.GetByID(ctx, id); err == nil && slot != nil {
		s.invalidateListing(ctx, slot)
	}
	logger.Info("SlotService:Release:Success", "slot_id", id)
	return nil
}

// ListAvailable returns open slots, served from the redis cache when the
// full (company, service, date) filter is present.
func (s *SlotService) ListAvailable(ctx context.Context, q *dto.ListSlotsQuery) ([]dto.SlotResponse, *errors.AppError) {
	companyID, err := parseOptionalUUID(q.CompanyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "invalid companyId", err)
	}
	serviceTypeID, err := parseOptionalUUID(q.ServiceTypeID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "invalid serviceTypeId", err)
	}
	date, err := parseOptionalDate(q.Date)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "invalid date, expected YYYY-MM-DD", err)
	}

	cacheKey := ""
	if companyID != nil && serviceTypeID != nil && date != nil {
		cacheKey = listingKey(*companyID, *serviceTypeID, *date)
		var cached []dto.SlotResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	slots, err := s.repo.ListAvailable(ctx, companyID, serviceTypeID, date)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list slots", err)
	}

	result := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toSlotResponse(&slots[i]))
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, result, constants.SlotCacheTTL); err != nil {
			logger.Warn("SlotService:ListAvailable:CacheSet", "error", err)
		}
	}

	return result, nil
}

func (s *SlotService) invalidateListing(ctx context.Context, slot *entity.Slot) {
	key := listingKey(slot.CompanyID, slot.ServiceTypeID, slot.Date)
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Warn("SlotService:invalidateListing", "error", err, "key", key)
	}
}

func listingKey(companyID, serviceTypeID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s",
		constants.SlotCacheKeyPrefix, companyID, serviceTypeID, date.Format("2006-01-02"))
}

func toSlotResponse(slot *entity.Slot) dto.SlotResponse {
	return dto.SlotResponse{
		ID:            slot.ID.String(),
		CompanyID:     slot.CompanyID.String(),
		ServiceTypeID: slot.ServiceTypeID.String(),
		Date:          slot.Date.Format("2006-01-02"),
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		MaxVolunteers: slot.MaxVolunteers,
		Remaining:     slot.Remaining(),
	}
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
