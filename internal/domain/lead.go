package domain

import "time"

type LeadStatus string

const (
	LeadStatusSubmitted    LeadStatus = "SUBMITTED"
	LeadStatusDisqualified LeadStatus = "DISQUALIFIED"
	LeadStatusBooked       LeadStatus = "BOOKED"
	LeadStatusBookFailed   LeadStatus = "BOOK_FAILED"
)

// Lead is the audit record of one qualification form submission and, once
// known, the outcome of its booking attempt. Booking tokens are never
// persisted here; the token store stays ephemeral.
type Lead struct {
	ID          string
	Name        string
	Email       string
	Based       string
	Occupation  string
	Income      string
	Willingness string
	Status      LeadStatus
	SlotTime    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Confirmation is the parsed result of a successful booking with the
// external scheduler.
type Confirmation struct {
	EventName    string
	StartTime    *time.Time
	JoinURL      string
	InviteeEmail string
	Raw          map[string]any
}
