package router

import (
	"fqt-booking-api/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	Controller *controller.BookingController
}

func NewBookingRouter(ctrl *controller.BookingController) *BookingRouter {
	return &BookingRouter{Controller: ctrl}
}

func (r *BookingRouter) Setup(e *echo.Echo) {
	public := e.Group("/api/v1/public")
	public.POST("/bookings", r.Controller.Create)
	public.GET("/bookings/:id", r.Controller.GetByID)
	public.POST("/bookings/:id/cancel", r.Controller.Cancel)

	internal := e.Group("/api/v1/internal")
	internal.POST("/bookings/:id/reassign", r.Controller.ReassignHost)
}
