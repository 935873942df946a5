package service

import (
	"context"
	"time"

	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/errors"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/booking/dto"
	"fqt-booking-api/modules/booking/entity"
	"fqt-booking-api/modules/booking/repository"
	catalogentity "fqt-booking-api/modules/catalog/entity"
	outboxentity "fqt-booking-api/modules/outbox/entity"
	outboxservice "fqt-booking-api/modules/outbox/service"
	slotentity "fqt-booking-api/modules/slot/entity"

	"github.com/google/uuid"
)

// SlotLedger is the capacity boundary. Reserve and Release are the only
// ways any booking flow touches a slot's counter.
type SlotLedger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*slotentity.Slot, error)
	Reserve(ctx context.Context, id uuid.UUID) (*slotentity.Slot, *errors.AppError)
	Release(ctx context.Context, id uuid.UUID) error
}

// CatalogStore resolves service types and companies for validation and for
// describing bookings to the collaborators.
type CatalogStore interface {
	GetServiceTypeByID(ctx context.Context, id uuid.UUID) (*catalogentity.ServiceType, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*catalogentity.Company, error)
}

// HostAssignment picks a host; the booking proceeds unassigned when it
// reports no host available.
type HostAssignment interface {
	AssignHost(ctx context.Context, serviceTypeID, companyID uuid.UUID, date time.Time) (string, *errors.AppError)
}

// EffectDispatcher fires external side effects. It never returns an error:
// failures are isolated, recorded and retried inside the orchestrator.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []*outboxentity.Effect) outboxservice.DispatchReport
}

type BookingService struct {
	ledger     SlotLedger
	bookings   repository.BookingRepositoryInterface
	catalog    CatalogStore
	assigner   HostAssignment
	dispatcher EffectDispatcher
}

func NewBookingService(
	ledger SlotLedger,
	bookings repository.BookingRepositoryInterface,
	catalog CatalogStore,
	assigner HostAssignment,
	dispatcher EffectDispatcher,
) *BookingService {
	return &BookingService{
		ledger:     ledger,
		bookings:   bookings,
		catalog:    catalog,
		assigner:   assigner,
		dispatcher: dispatcher,
	}
}

// CreateBooking runs the reservation pipeline: validate, reserve capacity,
// assign a host, persist, then hand the external side effects to the
// orchestrator. The only rollback boundary is reserve→persist; everything
// after the booking row exists is allowed to fail independently.
func (s *BookingService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, *errors.AppError) {
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "invalid slot_id", err)
	}

	logger.Info("BookingService:CreateBooking:Start", "slot_id", slotID, "volunteer_email", req.VolunteerEmail)

	slot, err := s.ledger.GetByID(ctx, slotID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load slot", err)
	}
	if slot == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "slot not found", nil)
	}

	serviceType, err := s.catalog.GetServiceTypeByID(ctx, slot.ServiceTypeID)
	if err != nil || serviceType == nil {
		logger.Error("BookingService:CreateBooking:GetServiceTypeByID:Error", "error", err, "service_type_id", slot.ServiceTypeID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load service type", err)
	}

	if !serviceType.IsVirtual() && req.Office == "" {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "office is required for in-person services", nil)
	}

	// Atomic capacity claim. On SlotFull nothing has happened yet; the
	// caller just picks another slot.
	reserved, appErr := s.ledger.Reserve(ctx, slotID)
	if appErr != nil {
		return nil, appErr
	}

	hostEmail := ""
	if assigned, hostErr := s.assigner.AssignHost(ctx, slot.ServiceTypeID, slot.CompanyID, slot.Date); hostErr == nil {
		hostEmail = assigned
	} else if errors.Is(hostErr, errors.ErrNoHostAvailable) {
		// Host assignment is advisory: a staffing gap must not cost the
		// volunteer their slot.
		logger.Warn("BookingService:CreateBooking:AssignHost:Unassigned", "slot_id", slotID)
	} else {
		logger.Error("BookingService:CreateBooking:AssignHost:Error",
			"slot_id", slotID, "code", hostErr.Code, "error", hostErr.Err)
	}

	booking := &entity.Booking{
		SlotID:         slotID,
		VolunteerName:  req.VolunteerName,
		VolunteerEmail: req.VolunteerEmail,
		VolunteerPhone: req.VolunteerPhone,
		HostEmail:      hostEmail,
		Status:         constants.BookingStatusConfirmed,
	}
	if req.Office != "" {
		booking.Office = &req.Office
	}

	created, err := s.bookings.Create(ctx, booking)
	if err != nil {
		// The one hard transactional boundary: the reserved unit must not
		// leak when the booking row fails to persist.
		logger.Error("BookingService:CreateBooking:Persist:Error", "error", err, "slot_id", slotID)
		if relErr := s.ledger.Release(ctx, slotID); relErr != nil {
			logger.Error("BookingService:CreateBooking:ReleaseAfterPersistFailure:Error",
				"error", relErr, "slot_id", slotID)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create booking", err)
	}

	bc := &bookingContext{
		Booking:     created,
		Slot:        reserved,
		ServiceType: serviceType,
		Company:     s.loadCompany(ctx, slot.CompanyID),
	}
	s.dispatcher.Dispatch(ctx, buildCreateEffects(bc))

	// Re-read for the meet link the calendar effect may have written back.
	final := created
	if reloaded, err := s.bookings.GetByID(ctx, created.ID); err == nil && reloaded != nil {
		final = reloaded
	}

	logger.Info("BookingService:CreateBooking:Success",
		"booking_id", created.ID, "slot_id", slotID, "host_email", hostEmail)
	return &dto.BookingResponse{
		BookingID: final.ID.String(),
		Status:    final.Status,
		HostEmail: final.HostEmail,
		MeetLink:  final.MeetLink,
	}, nil
}

// GetBooking serves the confirmation page lookup.
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, *errors.AppError) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
	}
	if booking == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "booking not found", nil)
	}
	return booking, nil
}

// ReassignHost swaps the booking's host. Capacity is untouched; calendar
// and notifications are re-fired for both the old and new host.
func (s *BookingService) ReassignHost(ctx context.Context, bookingID uuid.UUID, newHost string) (*dto.BookingResponse, *errors.AppError) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
	}
	if booking == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "booking not found", nil)
	}
	if booking.IsCancelled() {
		return nil, errors.NewAppError(errors.ErrAlreadyCancelled, "cannot reassign a cancelled booking", nil)
	}

	oldHost := booking.HostEmail
	if oldHost == newHost {
		return &dto.BookingResponse{
			BookingID: booking.ID.String(),
			Status:    booking.Status,
			HostEmail: booking.HostEmail,
			MeetLink:  booking.MeetLink,
		}, nil
	}

	if err := s.bookings.UpdateHostEmail(ctx, bookingID, newHost); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update host", err)
	}

	bc, appErr := s.describeBooking(ctx, booking)
	if appErr != nil {
		// The swap itself stands; only the follow-up effects are lost.
		logger.Error("BookingService:ReassignHost:Describe:Error", "error", appErr, "booking_id", bookingID)
	} else {
		s.dispatcher.Dispatch(ctx, buildReassignEffects(bc, oldHost, newHost))
	}

	logger.Info("BookingService:ReassignHost:Success",
		"booking_id", bookingID, "old_host", oldHost, "new_host", newHost)
	return &dto.BookingResponse{
		BookingID: booking.ID.String(),
		Status:    booking.Status,
		HostEmail: newHost,
		MeetLink:  booking.MeetLink,
	}, nil
}

func (s *BookingService) loadCompany(ctx context.Context, companyID uuid.UUID) *catalogentity.Company {
	company, err := s.catalog.GetCompanyByID(ctx, companyID)
	if err != nil {
		logger.Warn("BookingService:loadCompany:Error", "error", err, "company_id", companyID)
		return nil
	}
	return company
}

func (s *BookingService) describeBooking(ctx context.Context, booking *entity.Booking) (*bookingContext, *errors.AppError) {
	slot, err := s.ledger.GetByID(ctx, booking.SlotID)
	if err != nil || slot == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load slot", err)
	}
	serviceType, err := s.catalog.GetServiceTypeByID(ctx, slot.ServiceTypeID)
	if err != nil || serviceType == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load service type", err)
	}
	return &bookingContext{
		Booking:     booking,
		Slot:        slot,
		ServiceType: serviceType,
		Company:     s.loadCompany(ctx, slot.CompanyID),
	}, nil
}
