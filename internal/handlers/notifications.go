package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/push"
)

// GetNotifications gets one page of the user's notifications, newest first
// GET /api/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := h.notifications.ListForUser(c.Request.Context(), user.ID, limit, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_notifications", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetNotificationCounts gets just the unread count for badge display
// GET /api/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	unread, err := h.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_notification_counts", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

// MarkNotificationRead marks one of the user's notifications as read
// PATCH /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	notificationID := c.Param("id")
	err := h.notifications.MarkRead(c.Request.Context(), user.ID, notificationID)
	if err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_mark_read", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkAllNotificationsRead marks all of the user's notifications as read
// POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_mark_read", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"updated": updated,
	})
}

// subscribeRequest is the browser's PushSubscription JSON shape
type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// SubscribePush registers a browser push subscription for the user.
// Re-subscribing the same endpoint refreshes the keys.
// POST /api/notifications/push/subscribe
func (h *Handlers) SubscribePush(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_subscription", "message": err.Error()})
		return
	}

	sub := &models.PushSubscription{
		UserID:   user.ID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.pushStore.Save(c.Request.Context(), sub); err != nil {
		if errors.Is(err, push.ErrInvalidSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_subscription"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_subscribe", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "subscribed"})
}

// UnsubscribePush removes a push subscription by endpoint
// DELETE /api/notifications/push/subscribe
func (h *Handlers) UnsubscribePush(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if err := h.pushStore.Remove(c.Request.Context(), user.ID, req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_unsubscribe", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

// GetPushSubscriptions lists the user's registered push endpoints
// GET /api/notifications/push/subscriptions
func (h *Handlers) GetPushSubscriptions(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	subs, err := h.pushStore.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_subscriptions", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// GetVAPIDPublicKey returns the server's VAPID public key so clients
// can create push subscriptions. Public, no auth required.
// GET /api/notifications/push/vapid-public-key
func (h *Handlers) GetVAPIDPublicKey(c *gin.Context) {
	if h.pushAgent == nil || !h.pushAgent.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "push_not_configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.pushAgent.VAPIDPublicKey()})
}

// SendTestPush sends a test notification to all of the user's devices
// POST /api/notifications/push/test
func (h *Handlers) SendTestPush(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	if h.pushAgent == nil || !h.pushAgent.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "push_not_configured"})
		return
	}

	payload := push.Payload{
		Title: "Test notification",
		Body:  "Push notifications are working",
	}
	if err := h.pushAgent.SendToUser(c.Request.Context(), user.ID, payload); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_send", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
