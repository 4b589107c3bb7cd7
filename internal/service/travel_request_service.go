package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/travel-request-service/internal/domain"
	"github.com/spec-kit/travel-request-service/internal/events"
	"github.com/spec-kit/travel-request-service/internal/policy"
	"github.com/spec-kit/travel-request-service/internal/repository"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

const maxDestinationLen = 255

// TravelRequestService coordinates the travel request lifecycle: listing,
// creation, viewing, administrative status transitions and self-cancel.
type TravelRequestService struct {
	requests      repository.TravelRequestRepository
	dispatcher    events.Dispatcher
	thresholdDays int
	now           func() time.Time
}

// TravelRequestDependencies bundles collaborators for the service.
type TravelRequestDependencies struct {
	RequestRepo   repository.TravelRequestRepository
	Dispatcher    events.Dispatcher
	ThresholdDays int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// TravelRequestCreateInput describes the creation payload.
type TravelRequestCreateInput struct {
	Destination   string
	DepartureDate time.Time
	ReturnDate    time.Time
}

// TravelRequestListFilter describes listing filters.
type TravelRequestListFilter struct {
	Status      *domain.RequestStatus
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
}

// NewTravelRequestService constructs the service.
func NewTravelRequestService(deps TravelRequestDependencies) *TravelRequestService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	threshold := deps.ThresholdDays
	if threshold <= 0 {
		threshold = 7
	}
	return &TravelRequestService{
		requests:      deps.RequestRepo,
		dispatcher:    deps.Dispatcher,
		thresholdDays: threshold,
		now:           now,
	}
}

// List returns a page of travel requests visible to the actor. Non-admins
// only ever see their own requests.
func (s *TravelRequestService) List(ctx context.Context, actor policy.Actor, filter TravelRequestListFilter) (*repository.Page, error) {
	if err := policy.CanList(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.TravelRequestFilter{
		Status:      filter.Status,
		Destination: filter.Destination,
		StartDate:   filter.StartDate,
		EndDate:     filter.EndDate,
		Page:        filter.Page,
	}
	if !actor.IsAdmin() {
		ownerID := actor.ID
		repoFilter.OwnerID = &ownerID
	}
	return s.requests.ListWithFilter(ctx, repoFilter)
}

// Create validates the payload and persists a new request owned by the
// actor with initial status "requested". Client-supplied ownership is
// never trusted.
func (s *TravelRequestService) Create(ctx context.Context, actor policy.Actor, input TravelRequestCreateInput) (*domain.TravelRequest, error) {
	if err := policy.CanCreate(actor); err != nil {
		return nil, err
	}
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	request := &domain.TravelRequest{
		UserID:        actor.ID,
		Destination:   strings.TrimSpace(input.Destination),
		DepartureDate: input.DepartureDate,
		ReturnDate:    input.ReturnDate,
		Status:        domain.RequestStatusRequested,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTravelRequestCreated,
		TravelRequestID: request.ID,
		Actor:           events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TravelRequestCreatedPayload{
			OwnerUserID:   request.UserID,
			Destination:   request.Destination,
			DepartureDate: request.DepartureDate,
			ReturnDate:    request.ReturnDate,
		},
	})
	return request, nil
}

// Get loads a travel request and enforces view permission.
func (s *TravelRequestService) Get(ctx context.Context, actor policy.Actor, id string) (*domain.TravelRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanView(actor, request); err != nil {
		return nil, err
	}
	return request, nil
}

// UpdateStatus performs an administrative status transition to approved
// or cancelled. Re-approving an approved request is an idempotent no-op
// that triggers no notification.
func (s *TravelRequestService) UpdateStatus(ctx context.Context, actor policy.Actor, id string, newStatus domain.RequestStatus, reason string) (*domain.TravelRequest, error) {
	if newStatus != domain.RequestStatusApproved && newStatus != domain.RequestStatusCancelled {
		return nil, apperrors.NewValidationError("status must be approved or cancelled", map[string]any{
			"status": string(newStatus),
		})
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanTransition(actor, request, newStatus); err != nil {
		return nil, err
	}
	if request.Status == domain.RequestStatusCancelled {
		return nil, apperrors.NewBusinessRule("cancelled requests cannot change status")
	}
	if newStatus == request.Status {
		return request, nil
	}
	if newStatus == domain.RequestStatusCancelled && !request.CanBeCancelled(s.now(), s.thresholdDays) {
		return nil, apperrors.NewBusinessRule("this request can no longer be cancelled")
	}

	return s.transition(ctx, actor, request, newStatus, reason)
}

// Cancel lets the owning user cancel their own request, subject to the
// eligibility rule.
func (s *TravelRequestService) Cancel(ctx context.Context, actor policy.Actor, id string, reason string) (*domain.TravelRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanSelfCancel(actor, request); err != nil {
		return nil, err
	}
	if !request.CanBeCancelled(s.now(), s.thresholdDays) {
		return nil, apperrors.NewBusinessRule("this request can no longer be cancelled")
	}

	return s.transition(ctx, actor, request, domain.RequestStatusCancelled, reason)
}

// transition mutates the entity, commits it guarded by a compare-and-swap
// on the previously observed status, and publishes the status-changed
// event. Persistence happens-before the event reaches any subscriber.
func (s *TravelRequestService) transition(ctx context.Context, actor policy.Actor, request *domain.TravelRequest, newStatus domain.RequestStatus, reason string) (*domain.TravelRequest, error) {
	previous := request.Status
	if !request.ApplyStatus(newStatus, strings.TrimSpace(reason)) {
		return request, nil
	}
	if err := s.requests.UpdateStatus(ctx, request, previous); err != nil {
		if err == repository.ErrStaleStatus {
			return nil, apperrors.NewConflict("request status changed concurrently, reload and retry", nil)
		}
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:            events.EventTravelRequestStatusChanged,
		TravelRequestID: request.ID,
		Actor:           events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TravelRequestStatusChangedPayload{
			OwnerUserID:           request.UserID,
			OldStatus:             previous,
			NewStatus:             request.Status,
			Destination:           request.Destination,
			DepartureDate:         request.DepartureDate,
			ReturnDate:            request.ReturnDate,
			ReasonForCancellation: request.ReasonForCancellation,
		},
	})
	return request, nil
}

func (s *TravelRequestService) load(ctx context.Context, id string) (*domain.TravelRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("travel request", map[string]any{"id": id})
		}
		return nil, err
	}
	return request, nil
}

func (s *TravelRequestService) validateCreateInput(input TravelRequestCreateInput) error {
	details := map[string]any{}
	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		details["destination"] = "destination is required"
	} else if len(destination) > maxDestinationLen {
		details["destination"] = "destination must be at most 255 characters"
	}
	if input.DepartureDate.IsZero() {
		details["departure_date"] = "departure date is required"
	} else if dateOnly(input.DepartureDate).Before(dateOnly(s.now())) {
		details["departure_date"] = "departure date must be today or later"
	}
	if input.ReturnDate.IsZero() {
		details["return_date"] = "return date is required"
	} else if !input.DepartureDate.IsZero() && dateOnly(input.ReturnDate).Before(dateOnly(input.DepartureDate)) {
		details["return_date"] = "return date must be on or after departure date"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid travel request payload", details)
	}
	return nil
}

func (s *TravelRequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
