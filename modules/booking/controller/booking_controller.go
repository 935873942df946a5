package controller

import (
	"fqt-booking-api/core/controller"
	"fqt-booking-api/core/errors"
	"fqt-booking-api/modules/booking/dto"
	"fqt-booking-api/modules/booking/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	BookingService      *service.BookingService
	CancellationService *service.CancellationService
}

func NewBookingController(bookingSvc *service.BookingService, cancelSvc *service.CancellationService) *BookingController {
	return &BookingController{
		BaseController:      controller.NewBaseController(),
		BookingService:      bookingSvc,
		CancellationService: cancelSvc,
	}
}

func (b *BookingController) Create(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid request body", fieldErrors(err))
	}

	resp, appErr := b.BookingService.CreateBooking(c.Request().Context(), &req)
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}

	return b.SuccessResponse(c, resp, "booking confirmed")
}

func (b *BookingController) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid booking id")
	}

	booking, appErr := b.BookingService.GetBooking(c.Request().Context(), id)
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}

	return b.SuccessResponse(c, booking, "booking")
}

func (b *BookingController) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid booking id")
	}

	var req dto.CancelBookingRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid request body", fieldErrors(err))
	}

	resp, appErr := b.CancellationService.CancelBooking(c.Request().Context(), id, req.Reason)
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}

	return b.SuccessResponse(c, resp, "booking cancelled")
}

func (b *BookingController) ReassignHost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid booking id")
	}

	var req dto.ReassignHostRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "invalid request body", fieldErrors(err))
	}

	resp, appErr := b.BookingService.ReassignHost(c.Request().Context(), id, req.HostEmail)
	if appErr != nil {
		return b.ErrorResponse(c, appErr)
	}

	return b.SuccessResponse(c, resp, "host reassigned")
}

func fieldErrors(err error) []controller.ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]controller.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, controller.NewValidationError(fe.Field(), fe.Tag()))
	}
	return out
}
