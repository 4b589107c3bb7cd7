package worker

import (
	"context"

	"github.com/spec-kit/travel-request-service/internal/service"
)

// Runner drains queued events in the background.
type Runner interface {
	Run(ctx context.Context)
}

// StartNotificationWorker registers notification handlers and starts the
// dispatcher drain loop. The loop stops when ctx is cancelled.
func StartNotificationWorker(ctx context.Context, runner Runner, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if runner != nil {
		go runner.Run(ctx)
	}
}
