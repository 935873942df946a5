package service

import (
	"context"
	"fmt"

	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/logger"
	caldto "fqt-booking-api/modules/calendar/dto"
	"fqt-booking-api/modules/outbox/entity"
	"fqt-booking-api/modules/outbox/repository"

	"github.com/google/uuid"
)

// CalendarClient creates and deletes events in the staff calendar.
type CalendarClient interface {
	CreateEvent(ctx context.Context, spec *entity.CalendarEventSpec) (*caldto.CreateEventResponse, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Mailer sends a templated email.
type Mailer interface {
	Send(ctx context.Context, template, recipient string, variables map[string]string) error
}

// CRMClient mirrors the booking into the CRM.
type CRMClient interface {
	SyncBooking(ctx context.Context, task *entity.CRMTaskSpec) error
}

// BookingCalendarWriter persists external calendar identifiers back onto the
// booking as soon as they exist, so cancellation can find the event later.
type BookingCalendarWriter interface {
	SetCalendarEvent(ctx context.Context, bookingID uuid.UUID, eventID, meetLink string) error
}

// RetryEnqueuer hands a failed effect to the background retry queue.
type RetryEnqueuer interface {
	EnqueueRetry(effect *entity.Effect) error
}

type DispatchReport struct {
	Total     int
	Succeeded int
	Failed    int
}

// Orchestrator executes side effects with per-effect isolation: each effect
// gets its own timeout and failure boundary, every outcome is recorded, and
// no failure ever reaches the booking path as an error.
type Orchestrator struct {
	calendar CalendarClient
	mailer   Mailer
	crm      CRMClient
	bookings BookingCalendarWriter
	store    repository.EffectRepositoryInterface
	retry    RetryEnqueuer
}

func NewOrchestrator(
	calendar CalendarClient,
	mailer Mailer,
	crm CRMClient,
	bookings BookingCalendarWriter,
	store repository.EffectRepositoryInterface,
	retry RetryEnqueuer,
) *Orchestrator {
	return &Orchestrator{
		calendar: calendar,
		mailer:   mailer,
		crm:      crm,
		bookings: bookings,
		store:    store,
		retry:    retry,
	}
}

// Dispatch attempts every effect once, in order. Failures are recorded and
// enqueued for retry; they never abort the remaining effects and never
// propagate to the caller.
func (o *Orchestrator) Dispatch(ctx context.Context, effects []*entity.Effect) DispatchReport {
	report := DispatchReport{Total: len(effects)}

	for _, effect := range effects {
		if err := o.Execute(ctx, effect, 1); err != nil {
			report.Failed++
			if o.retry != nil {
				if enqErr := o.retry.EnqueueRetry(effect); enqErr != nil {
					logger.Error("Orchestrator:Dispatch:EnqueueRetry:Error",
						"error", enqErr, "effect_id", effect.ID, "booking_id", effect.BookingID)
				}
			}
			continue
		}
		report.Succeeded++
	}

	logger.Info("Orchestrator:Dispatch:Done",
		"total", report.Total, "succeeded", report.Succeeded, "failed", report.Failed)
	return report
}

// Execute runs a single effect with its own timeout and panic boundary and
// records the attempt outcome. Returns the underlying error so the retry
// worker can decide whether to retry.
func (o *Orchestrator) Execute(ctx context.Context, effect *entity.Effect, attempt int) (err error) {
	ctx, cancel := context.WithTimeout(ctx, constants.EffectDispatchTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panicked: %v", r)
		}
		o.recordAttempt(effect, attempt, err)
	}()

	switch effect.Type {
	case entity.EffectCalendarCreate:
		err = o.executeCalendarCreate(ctx, effect)
	case entity.EffectCalendarDelete:
		err = o.calendar.DeleteEvent(ctx, effect.CalendarEventID)
	case entity.EffectEmailSend:
		err = o.mailer.Send(ctx, effect.Email.Template, effect.Email.Recipient, effect.Email.Variables)
	case entity.EffectCRMSync:
		err = o.crm.SyncBooking(ctx, effect.CRM)
	default:
		err = fmt.Errorf("unknown effect type %q", effect.Type)
	}

	if err != nil {
		logger.Error("Orchestrator:Execute:Failed",
			"effect_id", effect.ID, "effect_type", effect.Type,
			"booking_id", effect.BookingID, "attempt", attempt, "error", err)
	}
	return err
}

func (o *Orchestrator) executeCalendarCreate(ctx context.Context, effect *entity.Effect) error {
	created, err := o.calendar.CreateEvent(ctx, effect.Calendar)
	if err != nil {
		return err
	}

	// Write the identifiers back immediately; if this booking is cancelled
	// later the workflow needs them to retract the event.
	if err := o.bookings.SetCalendarEvent(ctx, effect.BookingID, created.EventID, created.MeetLink); err != nil {
		logger.Error("Orchestrator:executeCalendarCreate:SetCalendarEvent:Error",
			"error", err, "booking_id", effect.BookingID, "event_id", created.EventID)
		return err
	}
	return nil
}

func (o *Orchestrator) recordAttempt(effect *entity.Effect, attempt int, execErr error) {
	record := &entity.EffectAttempt{
		EffectID:   effect.ID,
		BookingID:  effect.BookingID,
		EffectType: string(effect.Type),
		Status:     entity.AttemptStatusSuccess,
		Attempt:    attempt,
	}
	if execErr != nil {
		record.Status = entity.AttemptStatusFailed
		msg := execErr.Error()
		record.Error = &msg
	}

	// Recording must not depend on the request context, which may already
	// be cancelled by the time a timed-out effect reports back.
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	if err := o.store.RecordAttempt(ctx, record); err != nil {
		logger.Error("Orchestrator:recordAttempt:Error",
			"error", err, "effect_id", effect.ID, "booking_id", effect.BookingID)
	}
}
