package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/dto"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

const maxNotificationsLimit = 200

type NotificationHandler struct {
	notifications repository.NotificationRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List обрабатывает GET /api/notifications?limit=N.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	if limit > maxNotificationsLimit {
		limit = maxNotificationsLimit
	}

	items, err := h.notifications.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить уведомления"))
		return
	}

	response.Success(c, dto.ToNotificationResponses(items))
}
