package router

import (
	"fqt-booking-api/modules/outbox/controller"

	"github.com/labstack/echo/v4"
)

type EffectRouter struct {
	Controller *controller.EffectController
}

func NewEffectRouter(ctrl *controller.EffectController) *EffectRouter {
	return &EffectRouter{Controller: ctrl}
}

func (r *EffectRouter) Setup(e *echo.Echo) {
	internal := e.Group("/api/v1/internal")
	internal.GET("/effects", r.Controller.ListByBooking)
}
