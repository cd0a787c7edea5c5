package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sangamlabs/sangam/internal/api/models"
	"github.com/sangamlabs/sangam/internal/api/response"
	"github.com/sangamlabs/sangam/internal/notification"
)

// NotificationHandler handles notification outbox endpoints.
type NotificationHandler struct {
	notifications *notification.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications handles GET /v1/notifications - newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	list, err := h.notifications.ListForRecipient(r.Context(), memberID, queryLimit(r))
	if err != nil {
		response.InternalError(w, r, "failed to list notifications")
		return
	}

	items := make([]models.Notification, 0, len(list))
	for _, n := range list {
		items = append(items, models.Notification{
			ID:        n.ID,
			SenderID:  n.SenderID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Body:      n.Body,
			IsRead:    n.IsRead,
			RelatedID: n.RelatedID,
			CreatedAt: models.Timestamp(n.CreatedAt),
		})
	}
	response.JSON(w, r, http.StatusOK, models.Notifications{Items: items})
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	count, err := h.notifications.UnreadCount(r.Context(), memberID)
	if err != nil {
		response.InternalError(w, r, "failed to count unread notifications")
		return
	}

	response.JSON(w, r, http.StatusOK, models.UnreadCountResult{Count: count})
}

// MarkRead handles PUT /v1/notifications/{notificationId}/read.
// Marking someone else's notification reports found=false, never an error.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	notificationID := chi.URLParam(r, "notificationId")
	if notificationID == "" {
		response.BadRequest(w, r, "notificationId is required", nil)
		return
	}

	found, err := h.notifications.MarkRead(r.Context(), notificationID, memberID)
	if err != nil {
		response.InternalError(w, r, "failed to mark notification read")
		return
	}

	response.JSON(w, r, http.StatusOK, models.MarkReadResult{Found: found})
}

// MarkAllRead handles PUT /v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	count, err := h.notifications.MarkAllRead(r.Context(), memberID)
	if err != nil {
		response.InternalError(w, r, "failed to mark notifications read")
		return
	}

	response.JSON(w, r, http.StatusOK, models.MarkAllReadResult{Count: count})
}
