package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/travel-request-service/internal/config"
	"github.com/spec-kit/travel-request-service/internal/events"
	"github.com/spec-kit/travel-request-service/internal/repository"
)

// NotificationService delivers status-change notifications to request
// owners over two channels: a persisted in-app notification row and an
// email (stubbed as structured log output).
type NotificationService struct {
	dispatcher    events.Dispatcher
	users         repository.UserRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, notifications repository.NotificationRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher:    dispatcher,
		users:         users,
		notifications: notifications,
		logger:        logger,
		cfg:           cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTravelRequestStatusChanged, n.handleStatusChanged)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TravelRequestStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected payload type", zap.String("event_id", event.ID))
		return nil
	}

	owner, err := n.users.GetByID(ctx, payload.OwnerUserID)
	if err != nil {
		return err
	}

	if n.notifications != nil {
		record := &repository.Notification{
			UserID:                owner.ID,
			TravelRequestID:       event.TravelRequestID,
			Status:                payload.NewStatus,
			Destination:           payload.Destination,
			DepartureDate:         payload.DepartureDate,
			ReturnDate:            payload.ReturnDate,
			ReasonForCancellation: payload.ReasonForCancellation,
		}
		if err := n.notifications.Create(ctx, record); err != nil {
			return err
		}
	}

	n.sendEmailStub(owner.Email, event, payload)
	return nil
}

func (n *NotificationService) sendEmailStub(to string, event events.Event, payload events.TravelRequestStatusChangedPayload) {
	if n.cfg.EmailFrom == "" {
		return
	}
	n.logger.Info("travel request status notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("travel_request_id", event.TravelRequestID),
		zap.String("destination", payload.Destination),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
}
