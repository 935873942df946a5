package controller

import (
	"strconv"

	"fqt-booking-api/core/controller"
	"fqt-booking-api/core/errors"
	"fqt-booking-api/modules/outbox/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type EffectController struct {
	controller.BaseController
	Repo repository.EffectRepositoryInterface
}

func NewEffectController(repo repository.EffectRepositoryInterface) *EffectController {
	return &EffectController{
		BaseController: controller.NewBaseController(),
		Repo:           repo,
	}
}

// ListByBooking exposes the side-effect attempt log for operators chasing a
// failed calendar/email/CRM call.
func (e *EffectController) ListByBooking(c echo.Context) error {
	bookingID, err := uuid.Parse(c.QueryParam("bookingId"))
	if err != nil {
		return e.BadRequest(errors.ErrInvalidRequestData, "bookingId is required and must be a UUID")
	}

	pageNumber, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))

	attempts, err := e.Repo.ListByBookingID(c.Request().Context(), bookingID, pageNumber, pageSize)
	if err != nil {
		return e.ErrorResponse(c, err)
	}

	return e.SuccessResponse(c, attempts, "effect attempts")
}
