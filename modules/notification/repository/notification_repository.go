package repository

import (
	"context"

	"fqt-booking-api/core/database"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/notification/entity"
)

type NotificationRepository struct {
	DB database.IDatabase
}

func NewNotificationRepository(db database.IDatabase) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, notif *entity.Notification) error
}

func (r *NotificationRepository) Create(ctx context.Context, notif *entity.Notification) error {
	query := `
		INSERT INTO notifications (booking_id, template, recipient, subject, status, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := r.DB.ExecContext(ctx, query,
		notif.BookingID, notif.Template, notif.Recipient, notif.Subject, notif.Status, notif.Error)
	if err != nil {
		logger.Error("NotificationRepository:Create", "error", err, "recipient", notif.Recipient)
		return err
	}

	return nil
}
