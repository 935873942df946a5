package router

import (
	"fqt-booking-api/modules/slot/controller"

	"github.com/labstack/echo/v4"
)

type SlotRouter struct {
	Controller *controller.SlotController
}

func NewSlotRouter(ctrl *controller.SlotController) *SlotRouter {
	return &SlotRouter{Controller: ctrl}
}

func (r *SlotRouter) Setup(e *echo.Echo) {
	public := e.Group("/api/v1/public")
	public.GET("/slots", r.Controller.ListAvailable)
	public.GET("/slots/:id", r.Controller.GetByID)
}
