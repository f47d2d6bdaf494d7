package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/repository"
)

type NotificationsHandler struct {
	repo repository.Notifications
	lg   *logger.Logger
}

func NewNotificationsHandler(repo repository.Notifications, lg *logger.Logger) *NotificationsHandler {
	return &NotificationsHandler{repo: repo, lg: lg}
}

func (h *NotificationsHandler) List(c *gin.Context) {
	tc := tenant(c)
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.repo.List(c.Request.Context(), tc.TenantID, tc.UserID, unreadOnly)
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	views := make([]domain.NotificationView, 0, len(notifications))
	for i := range notifications {
		views = append(views, notifications[i].View())
	}
	c.JSON(http.StatusOK, gin.H{"notifications": views})
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	tc := tenant(c)
	if err := h.repo.MarkRead(c.Request.Context(), tc.TenantID, tc.UserID, c.Param("id")); err != nil {
		fail(c, h.lg, err)
		return
	}
	c.Status(http.StatusNoContent)
}
