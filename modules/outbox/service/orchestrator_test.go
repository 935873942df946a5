package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	coreentity "fqt-booking-api/core/entity"
	caldto "fqt-booking-api/modules/calendar/dto"
	"fqt-booking-api/modules/outbox/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalendar struct {
	failCreate bool
	deleted    []string
}

func (s *stubCalendar) CreateEvent(_ context.Context, _ *entity.CalendarEventSpec) (*caldto.CreateEventResponse, error) {
	if s.failCreate {
		return nil, fmt.Errorf("calendar unavailable")
	}
	return &caldto.CreateEventResponse{EventID: "evt-1", MeetLink: "https://meet.example/m"}, nil
}

func (s *stubCalendar) DeleteEvent(_ context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

type stubMailer struct {
	fail      bool
	panics    bool
	delivered []string
}

func (s *stubMailer) Send(_ context.Context, template, recipient string, _ map[string]string) error {
	if s.panics {
		panic("template engine blew up")
	}
	if s.fail {
		return fmt.Errorf("mail relay down")
	}
	s.delivered = append(s.delivered, template+"->"+recipient)
	return nil
}

type stubCRM struct {
	fail  bool
	tasks []*entity.CRMTaskSpec
}

func (s *stubCRM) SyncBooking(_ context.Context, task *entity.CRMTaskSpec) error {
	if s.fail {
		return fmt.Errorf("crm timeout")
	}
	s.tasks = append(s.tasks, task)
	return nil
}

type stubWriter struct {
	eventID  string
	meetLink string
	calls    int
}

func (s *stubWriter) SetCalendarEvent(_ context.Context, _ uuid.UUID, eventID, meetLink string) error {
	s.calls++
	s.eventID = eventID
	s.meetLink = meetLink
	return nil
}

type stubStore struct {
	mu       sync.Mutex
	attempts []*entity.EffectAttempt
}

func (s *stubStore) RecordAttempt(_ context.Context, attempt *entity.EffectAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *stubStore) ListByBookingID(_ context.Context, _ uuid.UUID, _, _ int) (*coreentity.Pagination[entity.EffectAttempt], error) {
	return coreentity.NewPagination[entity.EffectAttempt](nil, 0, 1, 20), nil
}

type stubRetry struct {
	enqueued []*entity.Effect
}

func (s *stubRetry) EnqueueRetry(effect *entity.Effect) error {
	s.enqueued = append(s.enqueued, effect)
	return nil
}

func emailEffect(bookingID uuid.UUID, id, recipient string) *entity.Effect {
	return &entity.Effect{
		ID:        id,
		Type:      entity.EffectEmailSend,
		BookingID: bookingID,
		Email:     &entity.EmailSpec{Template: "booking_confirmed_volunteer", Recipient: recipient},
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	bookingID := uuid.New()
	calendar := &stubCalendar{failCreate: true}
	mailer := &stubMailer{}
	crm := &stubCRM{}
	store := &stubStore{}
	retry := &stubRetry{}
	orch := NewOrchestrator(calendar, mailer, crm, &stubWriter{}, store, retry)

	effects := []*entity.Effect{
		{ID: "fx-1", Type: entity.EffectCalendarCreate, BookingID: bookingID, Calendar: &entity.CalendarEventSpec{}},
		emailEffect(bookingID, "fx-2", "ada@example.org"),
		{ID: "fx-3", Type: entity.EffectCRMSync, BookingID: bookingID, CRM: &entity.CRMTaskSpec{BookingID: bookingID}},
	}

	report := orch.Dispatch(context.Background(), effects)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	// The failed calendar effect did not stop the email or the CRM sync.
	assert.Len(t, mailer.delivered, 1)
	assert.Len(t, crm.tasks, 1)

	// Every execution left an attempt record.
	require.Len(t, store.attempts, 3)
	byID := map[string]*entity.EffectAttempt{}
	for _, attempt := range store.attempts {
		byID[attempt.EffectID] = attempt
	}
	assert.Equal(t, entity.AttemptStatusFailed, byID["fx-1"].Status)
	require.NotNil(t, byID["fx-1"].Error)
	assert.Equal(t, entity.AttemptStatusSuccess, byID["fx-2"].Status)
	assert.Equal(t, entity.AttemptStatusSuccess, byID["fx-3"].Status)

	// Only the failure went to the retry queue.
	require.Len(t, retry.enqueued, 1)
	assert.Equal(t, "fx-1", retry.enqueued[0].ID)
}

func TestCalendarCreateWritesIdentifiersBack(t *testing.T) {
	writer := &stubWriter{}
	orch := NewOrchestrator(&stubCalendar{}, &stubMailer{}, &stubCRM{}, writer, &stubStore{}, nil)

	effect := &entity.Effect{
		ID:        "fx-cal",
		Type:      entity.EffectCalendarCreate,
		BookingID: uuid.New(),
		Calendar:  &entity.CalendarEventSpec{CreateMeetLink: true},
	}
	require.NoError(t, orch.Execute(context.Background(), effect, 1))

	assert.Equal(t, 1, writer.calls)
	assert.Equal(t, "evt-1", writer.eventID)
	assert.Equal(t, "https://meet.example/m", writer.meetLink)
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	store := &stubStore{}
	orch := NewOrchestrator(&stubCalendar{}, &stubMailer{panics: true}, &stubCRM{}, &stubWriter{}, store, nil)

	err := orch.Execute(context.Background(), emailEffect(uuid.New(), "fx-boom", "ada@example.org"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	require.Len(t, store.attempts, 1)
	assert.Equal(t, entity.AttemptStatusFailed, store.attempts[0].Status)
}

func TestExecuteUnknownEffectType(t *testing.T) {
	store := &stubStore{}
	orch := NewOrchestrator(&stubCalendar{}, &stubMailer{}, &stubCRM{}, &stubWriter{}, store, nil)

	err := orch.Execute(context.Background(), &entity.Effect{ID: "fx-?", Type: "teleport", BookingID: uuid.New()}, 1)
	require.Error(t, err)
	require.Len(t, store.attempts, 1)
	assert.Equal(t, entity.AttemptStatusFailed, store.attempts[0].Status)
}

func TestExecuteRecordsAttemptNumber(t *testing.T) {
	store := &stubStore{}
	orch := NewOrchestrator(&stubCalendar{}, &stubMailer{fail: true}, &stubCRM{}, &stubWriter{}, store, nil)

	effect := emailEffect(uuid.New(), "fx-retry", "ada@example.org")
	require.Error(t, orch.Execute(context.Background(), effect, 3))

	require.Len(t, store.attempts, 1)
	assert.Equal(t, 3, store.attempts[0].Attempt)
}
