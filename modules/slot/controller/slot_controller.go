package controller

import (
	"fqt-booking-api/core/controller"
	"fqt-booking-api/core/errors"
	"fqt-booking-api/modules/slot/dto"
	"fqt-booking-api/modules/slot/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SlotController struct {
	controller.BaseController
	Service *service.SlotService
}

func NewSlotController(svc *service.SlotService) *SlotController {
	return &SlotController{
		BaseController: controller.NewBaseController(),
		Service:        svc,
	}
}

func (s *SlotController) ListAvailable(c echo.Context) error {
	var q dto.ListSlotsQuery
	if err := c.Bind(&q); err != nil {
		return s.BadRequest(errors.ErrInvalidRequestData, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return s.BadRequest(errors.ErrInvalidRequestData, "invalid query parameters", err.Error())
	}

	slots, appErr := s.Service.ListAvailable(c.Request().Context(), &q)
	if appErr != nil {
		return s.ErrorResponse(c, appErr)
	}

	return s.SuccessResponse(c, slots, "available slots")
}

func (s *SlotController) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return s.BadRequest(errors.ErrInvalidRequestData, "invalid slot id")
	}

	slot, err := s.Service.GetByID(c.Request().Context(), id)
	if err != nil {
		return s.ErrorResponse(c, err)
	}
	if slot == nil {
		return s.NotFound(errors.ErrNotFound, "slot not found")
	}

	return s.SuccessResponse(c, slot, "slot")
}
