package dto

// ListSlotsQuery filters the public availability listing.
type ListSlotsQuery struct {
	CompanyID     string `query:"companyId" validate:"omitempty,uuid"`
	ServiceTypeID string `query:"serviceTypeId" validate:"omitempty,uuid"`
	Date          string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type SlotResponse struct {
	ID            string `json:"id"`
	CompanyID     string `json:"company_id"`
	ServiceTypeID string `json:"service_type_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	MaxVolunteers int    `json:"max_volunteers"`
	Remaining     int    `json:"remaining"`
}
