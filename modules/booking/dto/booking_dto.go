package dto

type CreateBookingRequest struct {
	SlotID         string `json:"slot_id" validate:"required,uuid"`
	VolunteerName  string `json:"volunteer_name" validate:"required,max=200"`
	VolunteerEmail string `json:"volunteer_email" validate:"required,email"`
	VolunteerPhone string `json:"volunteer_phone" validate:"omitempty,max=30"`
	Office         string `json:"office" validate:"omitempty,max=200"`
}

type BookingResponse struct {
	BookingID string  `json:"booking_id"`
	Status    string  `json:"status"`
	HostEmail string  `json:"host_email,omitempty"`
	MeetLink  *string `json:"meet_link,omitempty"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CancelBookingResponse struct {
	Status string `json:"status"`
}

type ReassignHostRequest struct {
	HostEmail string `json:"host_email" validate:"required,email"`
}
