package events

import (
	"time"

	"github.com/spec-kit/travel-request-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTravelRequestCreated       EventType = "travel_request_created"
	EventTravelRequestStatusChanged EventType = "travel_request_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID              string      `json:"id"`
	Type            EventType   `json:"type"`
	TravelRequestID string      `json:"travel_request_id"`
	Actor           Actor       `json:"actor"`
	Timestamp       time.Time   `json:"timestamp"`
	Payload         interface{} `json:"payload"`
}

// TravelRequestCreatedPayload payload.
type TravelRequestCreatedPayload struct {
	OwnerUserID   string    `json:"owner_user_id"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departure_date"`
	ReturnDate    time.Time `json:"return_date"`
}

// TravelRequestStatusChangedPayload payload.
type TravelRequestStatusChangedPayload struct {
	OwnerUserID           string               `json:"owner_user_id"`
	OldStatus             domain.RequestStatus `json:"old_status"`
	NewStatus             domain.RequestStatus `json:"new_status"`
	Destination           string               `json:"destination"`
	DepartureDate         time.Time            `json:"departure_date"`
	ReturnDate            time.Time            `json:"return_date"`
	ReasonForCancellation *string              `json:"reason_for_cancellation,omitempty"`
}
