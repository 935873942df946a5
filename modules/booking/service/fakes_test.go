package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	coreentity "fqt-booking-api/core/entity"
	"fqt-booking-api/core/errors"
	bookingentity "fqt-booking-api/modules/booking/entity"
	caldto "fqt-booking-api/modules/calendar/dto"
	catalogentity "fqt-booking-api/modules/catalog/entity"
	outboxentity "fqt-booking-api/modules/outbox/entity"
	outboxservice "fqt-booking-api/modules/outbox/service"
	slotentity "fqt-booking-api/modules/slot/entity"

	"github.com/google/uuid"
)

// fakeLedger implements the same conditional reserve/release contract as
// the SQL-backed ledger, with a mutex standing in for the row-level
// atomicity of the conditional UPDATE.
type fakeLedger struct {
	mu           sync.Mutex
	slots        map[uuid.UUID]*slotentity.Slot
	releaseCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{slots: map[uuid.UUID]*slotentity.Slot{}}
}

func (f *fakeLedger) addSlot(slot *slotentity.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slot.ID] = slot
}

func (f *fakeLedger) current(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots[id].CurrentVolunteers
}

func (f *fakeLedger) GetByID(_ context.Context, id uuid.UUID) (*slotentity.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeLedger) Reserve(_ context.Context, id uuid.UUID) (*slotentity.Slot, *errors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[id]
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "slot not found", nil)
	}
	if !slot.Active {
		return nil, errors.NewAppError(errors.ErrSlotInactive, "slot is no longer open for booking", nil)
	}
	if slot.CurrentVolunteers >= slot.MaxVolunteers {
		return nil, errors.NewAppError(errors.ErrSlotFull, "slot is fully booked", nil)
	}

	slot.CurrentVolunteers++
	copied := *slot
	return &copied, nil
}

func (f *fakeLedger) Release(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[id]
	if !ok {
		return fmt.Errorf("slot not found")
	}
	f.releaseCalls++
	if slot.CurrentVolunteers > 0 {
		slot.CurrentVolunteers--
	}
	return nil
}

type fakeBookingStore struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*bookingentity.Booking
	failCreate bool
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: map[uuid.UUID]*bookingentity.Booking{}}
}

func (f *fakeBookingStore) Create(_ context.Context, booking *bookingentity.Booking) (*bookingentity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate {
		return nil, fmt.Errorf("insert failed")
	}

	copied := *booking
	copied.ID = uuid.New()
	copied.CreatedAt = time.Now()
	f.bookings[copied.ID] = &copied

	result := copied
	return &result, nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*bookingentity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) MarkCancelled(_ context.Context, id uuid.UUID, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[id]
	if !ok || booking.Status != "confirmed" {
		return 0, nil
	}
	now := time.Now()
	booking.Status = "cancelled"
	booking.CancelledAt = &now
	if reason != "" {
		booking.CancellationReason = &reason
	}
	return 1, nil
}

func (f *fakeBookingStore) SetCalendarEvent(_ context.Context, id uuid.UUID, eventID, meetLink string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	booking.GoogleEventID = &eventID
	if meetLink != "" {
		booking.MeetLink = &meetLink
	}
	return nil
}

func (f *fakeBookingStore) UpdateHostEmail(_ context.Context, id uuid.UUID, hostEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	booking.HostEmail = hostEmail
	return nil
}

func (f *fakeBookingStore) CountConfirmedByHost(_ context.Context, _ time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loads := make(map[string]int)
	for _, booking := range f.bookings {
		if booking.Status == "confirmed" && booking.HostEmail != "" {
			loads[booking.HostEmail]++
		}
	}
	return loads, nil
}

type fakeCatalog struct {
	serviceTypes map[uuid.UUID]*catalogentity.ServiceType
	companies    map[uuid.UUID]*catalogentity.Company
}

func (f *fakeCatalog) GetServiceTypeByID(_ context.Context, id uuid.UUID) (*catalogentity.ServiceType, error) {
	return f.serviceTypes[id], nil
}

func (f *fakeCatalog) GetCompanyByID(_ context.Context, id uuid.UUID) (*catalogentity.Company, error) {
	return f.companies[id], nil
}

type stubAssigner struct {
	host string
	err  *errors.AppError
}

func (s *stubAssigner) AssignHost(_ context.Context, _, _ uuid.UUID, _ time.Time) (string, *errors.AppError) {
	if s.err != nil {
		return "", s.err
	}
	return s.host, nil
}

// recordingDispatcher captures effects without executing them.
type recordingDispatcher struct {
	mu      sync.Mutex
	effects []*outboxentity.Effect
}

func (d *recordingDispatcher) Dispatch(_ context.Context, effects []*outboxentity.Effect) outboxservice.DispatchReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.effects = append(d.effects, effects...)
	return outboxservice.DispatchReport{Total: len(effects), Succeeded: len(effects)}
}

func (d *recordingDispatcher) byType(effectType outboxentity.EffectType) []*outboxentity.Effect {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*outboxentity.Effect
	for _, effect := range d.effects {
		if effect.Type == effectType {
			out = append(out, effect)
		}
	}
	return out
}

// Collaborator fakes for tests that run the real orchestrator.

type fakeCalendarClient struct {
	mu          sync.Mutex
	failCreate  bool
	createCalls int
	deleteCalls int
}

func (f *fakeCalendarClient) CreateEvent(_ context.Context, _ *outboxentity.CalendarEventSpec) (*caldto.CreateEventResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate {
		return nil, fmt.Errorf("calendar unavailable")
	}
	return &caldto.CreateEventResponse{EventID: "evt-123", MeetLink: "https://meet.example/abc"}, nil
}

func (f *fakeCalendarClient) DeleteEvent(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeMailer) Send(_ context.Context, template, recipient string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp relay down")
	}
	f.sent = append(f.sent, template+"->"+recipient)
	return nil
}

type fakeCRM struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeCRM) SyncBooking(_ context.Context, _ *outboxentity.CRMTaskSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return fmt.Errorf("crm timeout")
	}
	return nil
}

type fakeEffectStore struct {
	mu       sync.Mutex
	attempts []*outboxentity.EffectAttempt
}

func (f *fakeEffectStore) RecordAttempt(_ context.Context, attempt *outboxentity.EffectAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeEffectStore) ListByBookingID(_ context.Context, bookingID uuid.UUID, _, _ int) (*coreentity.Pagination[outboxentity.EffectAttempt], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []outboxentity.EffectAttempt
	for _, attempt := range f.attempts {
		if attempt.BookingID == bookingID {
			items = append(items, *attempt)
		}
	}
	return coreentity.NewPagination(items, len(items), 1, 20), nil
}
