package service

import (
	"context"

	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/errors"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/booking/dto"
	"fqt-booking-api/modules/booking/entity"
	"fqt-booking-api/modules/booking/repository"

	"github.com/google/uuid"
)

// CancellationService reverses a booking: one status transition, one
// capacity release, then best-effort retraction of the external state.
type CancellationService struct {
	ledger     SlotLedger
	bookings   repository.BookingRepositoryInterface
	catalog    CatalogStore
	dispatcher EffectDispatcher
}

func NewCancellationService(
	ledger SlotLedger,
	bookings repository.BookingRepositoryInterface,
	catalog CatalogStore,
	dispatcher EffectDispatcher,
) *CancellationService {
	return &CancellationService{
		ledger:     ledger,
		bookings:   bookings,
		catalog:    catalog,
		dispatcher: dispatcher,
	}
}

// CancelBooking is idempotent: a retried cancellation gets AlreadyCancelled
// and releases nothing, because the release is gated on the status
// transition having happened in this call.
func (s *CancellationService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*dto.CancelBookingResponse, *errors.AppError) {
	logger.Info("CancellationService:CancelBooking:Start", "booking_id", bookingID)

	// Read before the transition: the release needs the slot id, and no
	// fallible read may stand between the status flip and the release.
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
	}
	if booking == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "booking not found", nil)
	}

	rows, err := s.bookings.MarkCancelled(ctx, bookingID, reason)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to cancel booking", err)
	}
	if rows == 0 {
		logger.Info("CancellationService:CancelBooking:AlreadyCancelled", "booking_id", bookingID)
		return nil, errors.NewAppError(errors.ErrAlreadyCancelled, "booking is already cancelled", nil)
	}

	// Exactly one release per transition, gated solely on the affected-row
	// count above. A failure here is a capacity leak, so it is logged at
	// error level for operator follow-up, but the cancellation itself
	// stands.
	if err := s.ledger.Release(ctx, booking.SlotID); err != nil {
		logger.Error("CancellationService:CancelBooking:Release:Error",
			"error", err, "booking_id", bookingID, "slot_id", booking.SlotID)
	}

	// Refresh for the side effects; the pre-read copy (patched to the new
	// status) is good enough when the reload fails.
	booking.Status = constants.BookingStatusCancelled
	if reason != "" {
		booking.CancellationReason = &reason
	}
	if reloaded, err := s.bookings.GetByID(ctx, bookingID); err == nil && reloaded != nil {
		booking = reloaded
	}

	bc, appErr := s.describe(ctx, booking)
	if appErr != nil {
		logger.Error("CancellationService:CancelBooking:Describe:Error", "error", appErr, "booking_id", bookingID)
	} else {
		s.dispatcher.Dispatch(ctx, buildCancelEffects(bc, reason))
	}

	logger.Info("CancellationService:CancelBooking:Success", "booking_id", bookingID, "slot_id", booking.SlotID)
	return &dto.CancelBookingResponse{Status: constants.BookingStatusCancelled}, nil
}

func (s *CancellationService) describe(ctx context.Context, booking *entity.Booking) (*bookingContext, *errors.AppError) {
	slot, err := s.ledger.GetByID(ctx, booking.SlotID)
	if err != nil || slot == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load slot", err)
	}
	serviceType, err := s.catalog.GetServiceTypeByID(ctx, slot.ServiceTypeID)
	if err != nil || serviceType == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load service type", err)
	}

	bc := &bookingContext{
		Booking:     booking,
		Slot:        slot,
		ServiceType: serviceType,
	}
	if company, err := s.catalog.GetCompanyByID(ctx, slot.CompanyID); err == nil {
		bc.Company = company
	}
	return bc, nil
}
