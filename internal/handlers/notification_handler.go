package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyplan/internal/middleware"
	"studyplan/internal/realtime"
)

type NotificationHandler struct {
	hub *realtime.Hub
}

func NewNotificationHandler(hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// @Summary      Notification stream
// @Description  Server-sent events, one "notification" event per user action
// @Tags         Notifications
// @Produce      text/event-stream
// @Success      200
// @Router       /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	owner := middleware.OwnerID(c)
	sub := h.hub.Register(owner)
	defer h.hub.Unregister(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case n, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent("notification", n)
			c.Writer.Flush()
		case <-ctx.Done():
			// deliver what is already queued
			for {
				select {
				case n := <-sub.C:
					c.SSEvent("notification", n)
				default:
					c.Writer.Flush()
					return
				}
			}
		}
	}
}
