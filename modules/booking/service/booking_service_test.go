package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fqt-booking-api/core/errors"
	"fqt-booking-api/modules/booking/dto"
	catalogentity "fqt-booking-api/modules/catalog/entity"
	outboxentity "fqt-booking-api/modules/outbox/entity"
	outboxservice "fqt-booking-api/modules/outbox/service"
	slotentity "fqt-booking-api/modules/slot/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ledger     *fakeLedger
	store      *fakeBookingStore
	catalog    *fakeCatalog
	assigner   *stubAssigner
	dispatcher *recordingDispatcher
	svc        *BookingService
	cancelSvc  *CancellationService
	slot       *slotentity.Slot
}

func newHarness(t *testing.T, kind string, maxVolunteers, currentVolunteers int) *harness {
	t.Helper()

	serviceType := &catalogentity.ServiceType{Name: "CV Review", Kind: kind, Active: true}
	serviceType.ID = uuid.New()
	company := &catalogentity.Company{Name: "Globex", Address: "12 Rue de la Paix", Active: true}
	company.ID = uuid.New()

	slot := &slotentity.Slot{
		CompanyID:         company.ID,
		ServiceTypeID:     serviceType.ID,
		Date:              time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		StartTime:         "09:00",
		EndTime:           "10:00",
		MaxVolunteers:     maxVolunteers,
		CurrentVolunteers: currentVolunteers,
		Active:            true,
	}
	slot.ID = uuid.New()

	h := &harness{
		ledger: newFakeLedger(),
		store:  newFakeBookingStore(),
		catalog: &fakeCatalog{
			serviceTypes: map[uuid.UUID]*catalogentity.ServiceType{serviceType.ID: serviceType},
			companies:    map[uuid.UUID]*catalogentity.Company{company.ID: company},
		},
		assigner:   &stubAssigner{host: "host.a@fqt.org"},
		dispatcher: &recordingDispatcher{},
		slot:       slot,
	}
	h.ledger.addSlot(slot)
	h.svc = NewBookingService(h.ledger, h.store, h.catalog, h.assigner, h.dispatcher)
	h.cancelSvc = NewCancellationService(h.ledger, h.store, h.catalog, h.dispatcher)
	return h
}

func (h *harness) createRequest() *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		SlotID:         h.slot.ID.String(),
		VolunteerName:  "Ada Lovelace",
		VolunteerEmail: "ada@example.org",
		VolunteerPhone: "+33600000000",
	}
}

func TestCreateBookingConcurrentLastUnit(t *testing.T) {
	h := newHarness(t, "virtual", 3, 2)

	const callers = 8
	results := make([]*errors.AppError, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = h.svc.CreateBooking(context.Background(), h.createRequest())
		}(i)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, appErr := range results {
		switch {
		case appErr == nil:
			succeeded++
		case appErr.Code == errors.ErrSlotFull:
			full++
		default:
			t.Fatalf("unexpected error code %s", appErr.Code)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, full)
	assert.Equal(t, 3, h.ledger.current(h.slot.ID), "counter must end exactly at max")
}

func TestCreateBookingOfficeRules(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		office   string
		wantCode errors.ErrorCode
	}{
		{"in-person without office is rejected", "in_person", "", errors.ErrInvalidRequestData},
		{"in-person with office succeeds", "in_person", "Paris HQ, floor 3", ""},
		{"virtual without office succeeds", "virtual", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.kind, 5, 0)
			req := h.createRequest()
			req.Office = tc.office

			resp, appErr := h.svc.CreateBooking(context.Background(), req)
			if tc.wantCode != "" {
				require.NotNil(t, appErr)
				assert.Equal(t, tc.wantCode, appErr.Code)
				assert.Equal(t, 0, h.ledger.current(h.slot.ID), "rejected request must not consume capacity")
				return
			}

			require.Nil(t, appErr)
			assert.Equal(t, "confirmed", resp.Status)
			assert.Equal(t, 1, h.ledger.current(h.slot.ID))
		})
	}
}

func TestCreateBookingSlotNotFound(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)
	req := h.createRequest()
	req.SlotID = uuid.NewString()

	_, appErr := h.svc.CreateBooking(context.Background(), req)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestCreateBookingProceedsWhenNoHostAvailable(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)
	h.assigner.err = errors.NewAppError(errors.ErrNoHostAvailable, "no hosts configured for service", nil)

	resp, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Empty(t, resp.HostEmail)

	// Unassigned bookings still notify the volunteer, just not a host.
	emails := h.dispatcher.byType(outboxentity.EffectEmailSend)
	require.Len(t, emails, 1)
	assert.Equal(t, "ada@example.org", emails[0].Email.Recipient)
}

func TestCreateBookingReleasesOnPersistFailure(t *testing.T) {
	h := newHarness(t, "virtual", 5, 2)
	h.store.failCreate = true

	_, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInternalServer, appErr.Code)
	assert.Equal(t, 2, h.ledger.current(h.slot.ID), "reserved unit must be returned")
	assert.Equal(t, 1, h.ledger.releaseCalls)
	assert.Empty(t, h.dispatcher.effects, "no side effects for a booking that never existed")
}

func TestCreateBookingEffectOrderAndRecipients(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)

	resp, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)
	assert.Equal(t, "host.a@fqt.org", resp.HostEmail)

	require.Len(t, h.dispatcher.effects, 4)
	assert.Equal(t, outboxentity.EffectCalendarCreate, h.dispatcher.effects[0].Type)
	assert.Equal(t, outboxentity.EffectCRMSync, h.dispatcher.effects[3].Type)

	emails := h.dispatcher.byType(outboxentity.EffectEmailSend)
	require.Len(t, emails, 2)
	assert.Equal(t, "ada@example.org", emails[0].Email.Recipient)
	assert.Equal(t, "host.a@fqt.org", emails[1].Email.Recipient)

	calendar := h.dispatcher.effects[0].Calendar
	require.NotNil(t, calendar)
	assert.True(t, calendar.CreateMeetLink)
	assert.ElementsMatch(t, []string{"ada@example.org", "host.a@fqt.org"}, calendar.AttendeeEmails)
}

// A failing calendar collaborator must not fail the booking: the volunteer
// keeps the slot, the response simply has no meet link, and a later
// cancellation has no event to delete.
func TestCreateBookingSurvivesCalendarFailure(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)

	calendar := &fakeCalendarClient{failCreate: true}
	mailer := &fakeMailer{}
	crm := &fakeCRM{}
	effectStore := &fakeEffectStore{}
	orch := outboxservice.NewOrchestrator(calendar, mailer, crm, h.store, effectStore, nil)
	h.svc = NewBookingService(h.ledger, h.store, h.catalog, h.assigner, orch)
	h.cancelSvc = NewCancellationService(h.ledger, h.store, h.catalog, orch)

	resp, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Nil(t, resp.MeetLink)
	assert.Equal(t, 1, h.ledger.current(h.slot.ID))

	// The non-calendar effects still ran.
	assert.Len(t, mailer.sent, 2)
	assert.Equal(t, 1, crm.calls)

	failed := 0
	for _, attempt := range effectStore.attempts {
		if attempt.Status == outboxentity.AttemptStatusFailed {
			failed++
			assert.Equal(t, string(outboxentity.EffectCalendarCreate), attempt.EffectType)
		}
	}
	assert.Equal(t, 1, failed)

	// Cancelling afterwards must not try to delete an event that was never
	// created.
	bookingID := uuid.MustParse(resp.BookingID)
	_, appErr = h.cancelSvc.CancelBooking(context.Background(), bookingID, "changed plans")
	require.Nil(t, appErr)
	assert.Equal(t, 0, calendar.deleteCalls)
}

func TestSlotLifecycleRebookAfterCancel(t *testing.T) {
	h := newHarness(t, "virtual", 1, 0)

	first, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)

	second := h.createRequest()
	second.VolunteerEmail = "bob@example.org"
	_, appErr = h.svc.CreateBooking(context.Background(), second)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrSlotFull, appErr.Code)

	_, appErr = h.cancelSvc.CancelBooking(context.Background(), uuid.MustParse(first.BookingID), "")
	require.Nil(t, appErr)
	assert.Equal(t, 0, h.ledger.current(h.slot.ID))

	resp, appErr := h.svc.CreateBooking(context.Background(), second)
	require.Nil(t, appErr)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, 1, h.ledger.current(h.slot.ID))
}

func TestReassignHost(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)

	created, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)
	bookingID := uuid.MustParse(created.BookingID)

	// Simulate the calendar effect having written identifiers back.
	require.NoError(t, h.store.SetCalendarEvent(context.Background(), bookingID, "evt-42", "https://meet.example/xyz"))
	h.dispatcher.effects = nil

	resp, appErr := h.svc.ReassignHost(context.Background(), bookingID, "host.b@fqt.org")
	require.Nil(t, appErr)
	assert.Equal(t, "host.b@fqt.org", resp.HostEmail)

	stored, err := h.store.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, "host.b@fqt.org", stored.HostEmail)

	// Old event deleted, new one created, both hosts notified.
	assert.Len(t, h.dispatcher.byType(outboxentity.EffectCalendarDelete), 1)
	assert.Len(t, h.dispatcher.byType(outboxentity.EffectCalendarCreate), 1)
	emails := h.dispatcher.byType(outboxentity.EffectEmailSend)
	require.Len(t, emails, 2)
	assert.Equal(t, "host.a@fqt.org", emails[0].Email.Recipient)
	assert.Equal(t, "host.b@fqt.org", emails[1].Email.Recipient)
}

func TestReassignHostSameHostIsNoop(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)

	created, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)
	h.dispatcher.effects = nil

	resp, appErr := h.svc.ReassignHost(context.Background(), uuid.MustParse(created.BookingID), "host.a@fqt.org")
	require.Nil(t, appErr)
	assert.Equal(t, "host.a@fqt.org", resp.HostEmail)
	assert.Empty(t, h.dispatcher.effects)
}

func TestReassignHostCancelledBooking(t *testing.T) {
	h := newHarness(t, "virtual", 5, 0)

	created, appErr := h.svc.CreateBooking(context.Background(), h.createRequest())
	require.Nil(t, appErr)
	bookingID := uuid.MustParse(created.BookingID)

	_, appErr = h.cancelSvc.CancelBooking(context.Background(), bookingID, "")
	require.Nil(t, appErr)

	_, appErr = h.svc.ReassignHost(context.Background(), bookingID, "host.b@fqt.org")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyCancelled, appErr.Code)
}
