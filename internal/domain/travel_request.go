package domain

import "time"

// RequestStatus enumerates lifecycle states for travel requests.
type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "requested"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// IsValid reports whether the value is a known status.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusRequested, RequestStatusApproved, RequestStatusCancelled:
		return true
	}
	return false
}

// TravelRequest is the aggregate for corporate travel requests.
type TravelRequest struct {
	ID                    string
	UserID                string
	Destination           string
	DepartureDate         time.Time
	ReturnDate            time.Time
	Status                RequestStatus
	ReasonForCancellation *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CanBeCancelled reports whether the request is still eligible for
// cancellation at the given moment. Requested items always are; approved
// items only while departure is at least thresholdDays away; cancelled
// items never.
func (t *TravelRequest) CanBeCancelled(now time.Time, thresholdDays int) bool {
	switch t.Status {
	case RequestStatusRequested:
		return true
	case RequestStatusApproved:
		if t.DepartureDate.IsZero() {
			return false
		}
		return daysUntil(now, t.DepartureDate) >= thresholdDays
	default:
		return false
	}
}

// ApplyStatus mutates the status in place, recording the cancellation
// reason when one was supplied. Callers must have validated eligibility
// beforehand; this performs the mutation unconditionally. Returns whether
// the status actually changed.
func (t *TravelRequest) ApplyStatus(newStatus RequestStatus, reason string) bool {
	if t.Status == newStatus {
		return false
	}
	t.Status = newStatus
	if newStatus == RequestStatusCancelled && reason != "" {
		t.ReasonForCancellation = &reason
	}
	return true
}

// daysUntil counts whole calendar days between now and the target date,
// comparing dates rather than instants.
func daysUntil(now, target time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}
