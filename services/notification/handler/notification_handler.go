package handler

import (
	"context"
	"net/http"
	"strconv"

	model "campus-auction/internal/models"
	notification "campus-auction/internal/notificationService"
	"campus-auction/internal/repository"
	"campus-auction/services/auction/helpers"
	"campus-auction/utils"

	"github.com/gin-gonic/gin"
)

type NotificationServiceInterface interface {
	List(ctx context.Context, userID string, filter repository.NotificationFilter) (notification.ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID string) (model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, notificationID string) error
}

type NotificationHandler struct {
	service NotificationServiceInterface
}

func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// listFilter parses the optional read/limit/offset query parameters.
func listFilter(c *gin.Context) repository.NotificationFilter {
	var filter repository.NotificationFilter
	if raw, ok := c.GetQuery("read"); ok {
		if read, err := strconv.ParseBool(raw); err == nil {
			filter.Read = &read
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw, ok := c.GetQuery("offset"); ok {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}
	return filter
}

// ListNotificationsHandler handles GET /notifications
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	userID, _ := utils.UserIDFrom(c)

	result, err := h.service.List(c.Request.Context(), userID, listFilter(c))
	if err != nil {
		helpers.RespondError(c, "ListNotificationsHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, result, "notifications retrieved successfully")
	helpers.LogSuccess("ListNotificationsHandler", "notifications retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(result.Notifications),
		"unread":  result.UnreadCount,
	})
}

// UnreadCountHandler handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCountHandler(c *gin.Context) {
	userID, _ := utils.UserIDFrom(c)

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "UnreadCountHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"unread_count": count}, "unread count retrieved successfully")
}

// MarkReadHandler handles PATCH /notifications/:id/read
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID, _ := utils.UserIDFrom(c)
	notificationID := c.Param("id")

	n, err := h.service.MarkRead(c.Request.Context(), userID, notificationID)
	if err != nil {
		helpers.RespondError(c, "MarkReadHandler", err, map[string]any{
			"user_id":         userID,
			"notification_id": notificationID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, n, "notification marked as read")
	helpers.LogSuccess("MarkReadHandler", "notification marked as read", map[string]any{
		"user_id":         userID,
		"notification_id": notificationID,
	})
}

// MarkAllReadHandler handles PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllReadHandler(c *gin.Context) {
	userID, _ := utils.UserIDFrom(c)

	updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "MarkAllReadHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"updated_count": updated}, "all notifications marked as read")
	helpers.LogSuccess("MarkAllReadHandler", "all notifications marked as read", map[string]any{
		"user_id": userID,
		"updated": updated,
	})
}

// DeleteNotificationHandler handles DELETE /notifications/:id
func (h *NotificationHandler) DeleteNotificationHandler(c *gin.Context) {
	userID, _ := utils.UserIDFrom(c)
	notificationID := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), userID, notificationID); err != nil {
		helpers.RespondError(c, "DeleteNotificationHandler", err, map[string]any{
			"user_id":         userID,
			"notification_id": notificationID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "notification deleted successfully")
	helpers.LogSuccess("DeleteNotificationHandler", "notification deleted successfully", map[string]any{
		"user_id":         userID,
		"notification_id": notificationID,
	})
}
