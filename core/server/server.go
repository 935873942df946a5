package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fqt-booking-api/core/cache"
	"fqt-booking-api/core/config"
	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/database"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/core/validator"
	"fqt-booking-api/modules/booking"
	bookingrepo "fqt-booking-api/modules/booking/repository"
	calendarservice "fqt-booking-api/modules/calendar/service"
	crmservice "fqt-booking-api/modules/crm/service"
	notifrepo "fqt-booking-api/modules/notification/repository"
	notifservice "fqt-booking-api/modules/notification/service"
	"fqt-booking-api/modules/outbox"
	outboxservice "fqt-booking-api/modules/outbox/service"
	"fqt-booking-api/modules/outbox/tasks"
	"fqt-booking-api/modules/slot"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Run assembles the service and blocks until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)
	defer logger.Sync()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	redisCache := cache.NewRedisCache(cfg.Redis)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Collaborators
	calendarSvc := calendarservice.NewGoogleCalendarService(cfg.Google)
	mailerSvc := notifservice.NewMailerService(cfg.Mail, notifrepo.NewNotificationRepository(db))
	crmSvc := crmservice.NewZohoService(cfg.Zoho)

	// Modules
	ledger := slot.Init(e, db, redisCache)
	effectRepo := outbox.Init(e, db)

	orchestrator := outboxservice.NewOrchestrator(
		calendarSvc,
		mailerSvc,
		crmSvc,
		bookingrepo.NewBookingRepository(db),
		effectRepo,
		tasks.NewClient(asynqClient),
	)
	booking.Init(e, db, ledger, orchestrator)

	e.GET("/healthz", healthz(db, redisCache))

	// Background retry worker for failed side effects.
	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{constants.EffectRetryQueue: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.EffectTaskTypeName, tasks.NewHandler(orchestrator))
	go func() {
		if err := worker.Run(mux); err != nil {
			logger.Error("Server:Run:AsynqWorker", "error", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server:Run:ShuttingDown")

	ctx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	worker.Shutdown()
	return e.Shutdown(ctx)
}

func healthz(db database.IDatabase, c cache.Cache) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqCtx := ctx.Request().Context()
		if err := db.SQLx().PingContext(reqCtx); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		}
		if err := c.Ping(reqCtx); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
