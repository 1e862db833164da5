package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/notify"
)

// Records reads attendance history for the listing and report endpoints.
type Records interface {
	ListByStudent(ctx context.Context, studentID string) ([]attendance.Record, error)
	ListByCourse(ctx context.Context, courseID string) ([]attendance.ReportRow, error)
}

// Handler serves the HTTP API.
type Handler struct {
	checkIns *attendance.Service
	catalog  *attendance.Catalog
	records  Records
	notify   *notify.Service
	checks   map[string]func(context.Context) bool
}

// Deps wires a Handler. A nil Notify disables the notification routes and the
// notification sent after each check-in.
type Deps struct {
	CheckIns *attendance.Service
	Catalog  *attendance.Catalog
	Records  Records
	Notify   *notify.Service
	// Checks are reported by /healthz under their key.
	Checks map[string]func(context.Context) bool
}

// New creates a handler.
func New(d Deps) *Handler {
	return &Handler{
		checkIns: d.CheckIns,
		catalog:  d.Catalog,
		records:  d.Records,
		notify:   d.Notify,
		checks:   d.Checks,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, attendance.ErrForbidden), errors.Is(err, attendance.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, attendance.ErrCourseNotFound),
		errors.Is(err, attendance.ErrNotEnrolled),
		errors.Is(err, notify.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, attendance.ErrCourseExists):
		return http.StatusConflict
	case attendance.IsRejection(err),
		errors.Is(err, attendance.ErrInvalidSchedule),
		errors.Is(err, attendance.ErrInvalidRadius),
		errors.Is(err, attendance.ErrCourseFields),
		errors.Is(err, attendance.ErrStudentRequired),
		errors.Is(err, attendance.ErrSessionAlreadyActive),
		errors.Is(err, notify.ErrRegistrationRequired),
		errors.Is(err, notify.ErrInvalidType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": msg}. Unexpected errors are logged and hidden.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func actorFrom(c *gin.Context) attendance.Actor {
	claims, _ := auth.FromContext(c)
	return attendance.Actor{ID: claims.RegisteredClaims.Subject, Role: claims.Role}
}

// Health reports every configured dependency check.
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
