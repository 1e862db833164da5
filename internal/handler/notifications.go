package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusattend/internal/notify"
)

type deviceRequest struct {
	RegistrationID string `json:"registration_id"`
}

// ListNotifications returns the caller's notifications, optionally filtered by
// ?read= and ?type=.
func (h *Handler) ListNotifications(c *gin.Context) {
	var f notify.Filter
	if v := c.Query("read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read must be true or false"})
			return
		}
		f.Read = &read
	}
	f.Type = notify.Type(c.Query("type"))

	list, err := h.notify.List(c.Request.Context(), actorFrom(c).ID, f)
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []notify.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead flags one of the caller's notifications as read.
func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.notify.MarkRead(c.Request.Context(), actorFrom(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// MarkAllRead flags every unread notification of the caller.
func (h *Handler) MarkAllRead(c *gin.Context) {
	updated, err := h.notify.MarkAllRead(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}

// RegisterDevice adds a push registration for the caller.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req deviceRequest
	if !bindJSON(c, &req) {
		return
	}
	dev, err := h.notify.RegisterDevice(c.Request.Context(), actorFrom(c).ID, req.RegistrationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dev)
}

// UnregisterDevice deactivates one of the caller's push registrations.
func (h *Handler) UnregisterDevice(c *gin.Context) {
	var req deviceRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.notify.UnregisterDevice(c.Request.Context(), actorFrom(c).ID, req.RegistrationID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered successfully"})
}
