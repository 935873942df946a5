package outbox

import (
	"fqt-booking-api/core/database"
	"fqt-booking-api/modules/outbox/controller"
	"fqt-booking-api/modules/outbox/repository"
	"fqt-booking-api/modules/outbox/router"

	"github.com/labstack/echo/v4"
)

// Init wires the effect attempt log and its internal query endpoint. The
// orchestrator itself is assembled in core/server because it spans the
// calendar, mail and CRM collaborators.
func Init(e *echo.Echo, db database.IDatabase) *repository.EffectRepository {
	repo := repository.NewEffectRepository(db)
	ctrl := controller.NewEffectController(repo)
	router.NewEffectRouter(ctrl).Setup(e)
	return repo
}
