package handlers

import (
	"net/http"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// notificationHandler handles HTTP requests related to stored notifications.
type notificationHandler struct {
	notificationService portssvc.NotificationSvcFacade
}

// newNotificationHandler creates a new notificationHandler.
func newNotificationHandler(notificationService portssvc.NotificationSvcFacade) *notificationHandler {
	return &notificationHandler{notificationService: notificationService}
}

// registerNotificationRoutes wires the notification endpoints into the
// router group.
func registerNotificationRoutes(rg *gin.RouterGroup, notificationService portssvc.NotificationSvcFacade) {
	h := newNotificationHandler(notificationService)

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.listNotifications)
		notifications.GET("/unread-count", h.unreadCount)
		notifications.PATCH("/read-all", h.markAllRead)
		notifications.PATCH("/:notificationID/read", h.markRead)
		notifications.DELETE("/:notificationID", h.deleteNotification)
	}
}

// listNotifications godoc
// @Summary List the caller's notifications
// @Description Lists stored notifications, newest first
// @Tags notifications
// @Produce  json
// @Param   unread query bool false "Only unread notifications"
// @Param   limit query int false "Page size" default(20)
// @Success 200 {array} dto.NotificationResponse
// @Router /notifications [get]
func (h *notificationHandler) listNotifications(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	onlyUnread := c.Query("unread") == "true"
	limit, _ := paginationParams(c)

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), userID, onlyUnread, limit)
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, dto.ToNotificationResponses(notifications))
}

// unreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce  json
// @Success 200 {object} map[string]int64
// @Router /notifications/unread-count [get]
func (h *notificationHandler) unreadCount(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// markRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce  json
// @Param   notificationID path string true "Notification ID"
// @Success 204 "Marked read"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{notificationID}/read [patch]
func (h *notificationHandler) markRead(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("notificationID"), userID); err != nil {
		respondError(c, err, "Failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

// markAllRead godoc
// @Summary Mark all notifications read
// @Tags notifications
// @Produce  json
// @Success 200 {object} map[string]int64
// @Router /notifications/read-all [patch]
func (h *notificationHandler) markAllRead(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// deleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Produce  json
// @Param   notificationID path string true "Notification ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{notificationID} [delete]
func (h *notificationHandler) deleteNotification(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), c.Param("notificationID"), userID); err != nil {
		respondError(c, err, "Failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}
