package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/travel-request-service/internal/api/dto"
	"github.com/spec-kit/travel-request-service/internal/auth"
	"github.com/spec-kit/travel-request-service/internal/repository"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

// NotificationsHandler exposes the in-app notification feed.
type NotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications. Callers only ever see their own feed.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	notifications, err := h.notifications.ListByUser(c.Context(), principal.User.ID, 50)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, notificationResponse(&notifications[i]))
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   items,
	})
}

func notificationResponse(n *repository.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:                    n.ID,
		TravelRequestID:       n.TravelRequestID,
		Status:                string(n.Status),
		Destination:           n.Destination,
		DepartureDate:         n.DepartureDate.Format(dto.DateLayout),
		ReturnDate:            n.ReturnDate.Format(dto.DateLayout),
		ReasonForCancellation: n.ReasonForCancellation,
		ReadAt:                n.ReadAt,
		CreatedAt:             n.CreatedAt,
	}
}
