package dto

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// CreateTravelRequestRequest payload.
type CreateTravelRequestRequest struct {
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
}

// UpdateTravelRequestStatusRequest payload for the admin endpoint.
type UpdateTravelRequestStatusRequest struct {
	Status                string `json:"status"`
	ReasonForCancellation string `json:"reason_for_cancellation"`
}

// CancelTravelRequestRequest payload for self-cancellation.
type CancelTravelRequestRequest struct {
	ReasonForCancellation string `json:"reason_for_cancellation"`
}

// TravelRequestResponse response body for a single request.
type TravelRequestResponse struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Destination           string    `json:"destination"`
	DepartureDate         string    `json:"departure_date"`
	ReturnDate            string    `json:"return_date"`
	Status                string    `json:"status"`
	ReasonForCancellation *string   `json:"reason_for_cancellation"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NotificationResponse is one entry in the in-app notification feed.
type NotificationResponse struct {
	ID                    string     `json:"id"`
	TravelRequestID       string     `json:"travel_request_id"`
	Status                string     `json:"status"`
	Destination           string     `json:"destination"`
	DepartureDate         string     `json:"departure_date"`
	ReturnDate            string     `json:"return_date"`
	ReasonForCancellation *string    `json:"reason_for_cancellation"`
	ReadAt                *time.Time `json:"read_at"`
	CreatedAt             time.Time  `json:"created_at"`
}

// PaginationMeta carries offset paging metadata for list responses.
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
}
