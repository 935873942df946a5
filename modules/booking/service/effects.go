package service

import (
	"fmt"
	"time"

	"fqt-booking-api/core/config"
	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/utils"
	bookingentity "fqt-booking-api/modules/booking/entity"
	catalogentity "fqt-booking-api/modules/catalog/entity"
	notifservice "fqt-booking-api/modules/notification/service"
	outboxentity "fqt-booking-api/modules/outbox/entity"
	slotentity "fqt-booking-api/modules/slot/entity"
)

// bookingContext bundles everything the effect builders need to describe a
// booking to the outside world.
type bookingContext struct {
	Booking     *bookingentity.Booking
	Slot        *slotentity.Slot
	ServiceType *catalogentity.ServiceType
	Company     *catalogentity.Company
}

func (bc *bookingContext) companyName() string {
	if bc.Company == nil {
		return ""
	}
	return bc.Company.Name
}

func (bc *bookingContext) location() string {
	if bc.Booking.Office != nil && *bc.Booking.Office != "" {
		return *bc.Booking.Office
	}
	if bc.Company != nil {
		return bc.Company.Address
	}
	return ""
}

// manageLine points the volunteer at their booking page when a public base
// URL is configured; empty otherwise so the template renders nothing.
func (bc *bookingContext) manageLine() string {
	cfg, ok := config.GetSafe()
	if !ok || cfg.Server.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("Manage your booking: %s/bookings/%s", cfg.Server.BaseURL, bc.Booking.ID)
}

func (bc *bookingContext) emailVariables() map[string]string {
	meetLine := fmt.Sprintf("Location: %s", bc.location())
	if bc.ServiceType.IsVirtual() {
		meetLine = "This is a virtual session; the meeting link is in your calendar invite."
	}

	return map[string]string{
		"booking_id":      bc.Booking.ID.String(),
		"volunteer_name":  bc.Booking.VolunteerName,
		"volunteer_email": bc.Booking.VolunteerEmail,
		"company_name":    bc.companyName(),
		"service_name":    bc.ServiceType.Name,
		"date":            bc.Slot.Date.Format("2006-01-02"),
		"start_time":      bc.Slot.StartTime,
		"end_time":        bc.Slot.EndTime,
		"meet_line":       meetLine,
		"manage_line":     bc.manageLine(),
	}
}

func (bc *bookingContext) crmSpec(status string) *outboxentity.CRMTaskSpec {
	return &outboxentity.CRMTaskSpec{
		BookingID:      bc.Booking.ID,
		VolunteerName:  bc.Booking.VolunteerName,
		VolunteerEmail: bc.Booking.VolunteerEmail,
		HostEmail:      bc.Booking.HostEmail,
		CompanyName:    bc.companyName(),
		ServiceName:    bc.ServiceType.Name,
		Date:           bc.Slot.Date.Format("2006-01-02"),
		StartTime:      bc.Slot.StartTime,
		Status:         status,
	}
}

func (bc *bookingContext) calendarSpec(hostEmail string) *outboxentity.CalendarEventSpec {
	attendees := []string{bc.Booking.VolunteerEmail}
	if hostEmail != "" {
		attendees = append(attendees, hostEmail)
	}

	spec := &outboxentity.CalendarEventSpec{
		Summary: fmt.Sprintf("%s: %s (%s)", bc.ServiceType.Name, bc.Booking.VolunteerName, bc.companyName()),
		Description: fmt.Sprintf("Volunteer session booked via FQT. Booking %s.",
			bc.Booking.ID),
		Start:          bc.Slot.StartsAt(time.Local),
		End:            bc.Slot.EndsAt(time.Local),
		AttendeeEmails: attendees,
		CreateMeetLink: bc.ServiceType.IsVirtual(),
	}
	if !bc.ServiceType.IsVirtual() {
		spec.Location = bc.location()
	}
	return spec
}

func newEffect(effectType outboxentity.EffectType, bc *bookingContext) *outboxentity.Effect {
	return &outboxentity.Effect{
		ID:        utils.GenerateID(),
		Type:      effectType,
		BookingID: bc.Booking.ID,
	}
}

// buildCreateEffects assembles the side effects of a confirmed booking:
// calendar event, confirmation emails, CRM task. Order matters only in that
// the calendar effect runs first so the invite exists before anyone reads
// their email.
func buildCreateEffects(bc *bookingContext) []*outboxentity.Effect {
	var effects []*outboxentity.Effect

	calendar := newEffect(outboxentity.EffectCalendarCreate, bc)
	calendar.Calendar = bc.calendarSpec(bc.Booking.HostEmail)
	effects = append(effects, calendar)

	volunteerMail := newEffect(outboxentity.EffectEmailSend, bc)
	volunteerMail.Email = &outboxentity.EmailSpec{
		Template:  notifservice.TemplateBookingConfirmedVolunteer,
		Recipient: bc.Booking.VolunteerEmail,
		Variables: bc.emailVariables(),
	}
	effects = append(effects, volunteerMail)

	if bc.Booking.HasHost() {
		hostMail := newEffect(outboxentity.EffectEmailSend, bc)
		hostMail.Email = &outboxentity.EmailSpec{
			Template:  notifservice.TemplateBookingConfirmedHost,
			Recipient: bc.Booking.HostEmail,
			Variables: bc.emailVariables(),
		}
		effects = append(effects, hostMail)
	}

	crm := newEffect(outboxentity.EffectCRMSync, bc)
	crm.CRM = bc.crmSpec(constants.BookingStatusConfirmed)
	effects = append(effects, crm)

	return effects
}

// buildCancelEffects retracts the calendar event (only when one was actually
// created) and notifies both parties.
func buildCancelEffects(bc *bookingContext, reason string) []*outboxentity.Effect {
	var effects []*outboxentity.Effect

	if bc.Booking.GoogleEventID != nil && *bc.Booking.GoogleEventID != "" {
		del := newEffect(outboxentity.EffectCalendarDelete, bc)
		del.CalendarEventID = *bc.Booking.GoogleEventID
		effects = append(effects, del)
	}

	variables := bc.emailVariables()
	if reason == "" {
		reason = "not provided"
	}
	variables["reason"] = reason

	volunteerMail := newEffect(outboxentity.EffectEmailSend, bc)
	volunteerMail.Email = &outboxentity.EmailSpec{
		Template:  notifservice.TemplateBookingCancelledVolunteer,
		Recipient: bc.Booking.VolunteerEmail,
		Variables: variables,
	}
	effects = append(effects, volunteerMail)

	if bc.Booking.HasHost() {
		hostMail := newEffect(outboxentity.EffectEmailSend, bc)
		hostMail.Email = &outboxentity.EmailSpec{
			Template:  notifservice.TemplateBookingCancelledHost,
			Recipient: bc.Booking.HostEmail,
			Variables: variables,
		}
		effects = append(effects, hostMail)
	}

	crm := newEffect(outboxentity.EffectCRMSync, bc)
	crm.CRM = bc.crmSpec(constants.BookingStatusCancelled)
	effects = append(effects, crm)

	return effects
}

// buildReassignEffects re-fires calendar and notifications for a host swap.
// The old event is deleted and recreated so the attendee list on the invite
// stays truthful.
func buildReassignEffects(bc *bookingContext, oldHost, newHost string) []*outboxentity.Effect {
	var effects []*outboxentity.Effect

	if bc.Booking.GoogleEventID != nil && *bc.Booking.GoogleEventID != "" {
		del := newEffect(outboxentity.EffectCalendarDelete, bc)
		del.CalendarEventID = *bc.Booking.GoogleEventID
		effects = append(effects, del)

		create := newEffect(outboxentity.EffectCalendarCreate, bc)
		create.Calendar = bc.calendarSpec(newHost)
		effects = append(effects, create)
	}

	variables := bc.emailVariables()
	variables["old_host"] = oldHost
	variables["new_host"] = newHost

	if oldHost != "" {
		oldMail := newEffect(outboxentity.EffectEmailSend, bc)
		oldMail.Email = &outboxentity.EmailSpec{
			Template:  notifservice.TemplateHostReassigned,
			Recipient: oldHost,
			Variables: variables,
		}
		effects = append(effects, oldMail)
	}

	newMail := newEffect(outboxentity.EffectEmailSend, bc)
	newMail.Email = &outboxentity.EmailSpec{
		Template:  notifservice.TemplateBookingConfirmedHost,
		Recipient: newHost,
		Variables: variables,
	}
	effects = append(effects, newMail)

	return effects
}
