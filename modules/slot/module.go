package slot

import (
	"fqt-booking-api/core/cache"
	"fqt-booking-api/core/database"
	"fqt-booking-api/modules/slot/controller"
	"fqt-booking-api/modules/slot/repository"
	"fqt-booking-api/modules/slot/router"
	"fqt-booking-api/modules/slot/service"

	"github.com/labstack/echo/v4"
)

// Init wires the slot module and returns the ledger service for the booking
// module to reserve and release capacity through.
func Init(e *echo.Echo, db database.IDatabase, c cache.Cache) *service.SlotService {
	repo := repository.NewSlotRepository(db)
	svc := service.NewSlotService(repo, c)
	ctrl := controller.NewSlotController(svc)
	router.NewSlotRouter(ctrl).Setup(e)
	return svc
}
