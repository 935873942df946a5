package booking

import (
	"fqt-booking-api/core/database"
	"fqt-booking-api/modules/booking/controller"
	"fqt-booking-api/modules/booking/repository"
	"fqt-booking-api/modules/booking/router"
	"fqt-booking-api/modules/booking/service"
	catalogRepository "fqt-booking-api/modules/catalog/repository"
	slotservice "fqt-booking-api/modules/slot/service"

	"github.com/labstack/echo/v4"
)

// Init wires the booking module. The ledger and the effect dispatcher are
// shared components owned by the server bootstrap.
func Init(e *echo.Echo, db database.IDatabase, ledger *slotservice.SlotService, dispatcher service.EffectDispatcher) {
	bookingRepo := repository.NewBookingRepository(db)
	catalogRepo := catalogRepository.NewCatalogRepository(db)
	assigner := service.NewHostAssigner(catalogRepo, bookingRepo)

	bookingSvc := service.NewBookingService(ledger, bookingRepo, catalogRepo, assigner, dispatcher)
	cancelSvc := service.NewCancellationService(ledger, bookingRepo, catalogRepo, dispatcher)

	ctrl := controller.NewBookingController(bookingSvc, cancelSvc)
	router.NewBookingRouter(ctrl).Setup(e)
}
