package worker

import (
	"go.uber.org/zap"

	"github.com/serviceflow/helpdesk-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to ticket
// and comment events. Delivery happens inline on publish; there is no
// separate queue to drain.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker registered")
}
