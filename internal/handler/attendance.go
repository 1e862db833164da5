package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/report"
)

// notifyTimeout bounds the post-commit notification so it cannot hold the 201.
const notifyTimeout = 2 * time.Second

type submitRequest struct {
	Session       string   `json:"session" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"required,latitude"`
	Longitude     *float64 `json:"longitude" binding:"required,longitude"`
	BiometricData string   `json:"biometric_data"`
}

// Submit runs a student check-in.
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := actorFrom(c)
	rec, err := h.checkIns.CheckIn(c.Request.Context(), actor, attendance.Submission{
		SessionID:     req.Session,
		Latitude:      *req.Latitude,
		Longitude:     *req.Longitude,
		BiometricData: req.BiometricData,
	})
	if err != nil {
		if attendance.IsRejection(err) {
			log.Printf("checkin rejected: student=%s session=%s reason=%s", actor.ID, req.Session, attendance.Outcome(err))
		}
		fail(c, err)
		return
	}

	if h.notify != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), notifyTimeout)
		_, err := h.notify.CheckedIn(ctx, rec)
		cancel()
		if err != nil {
			log.Printf("checkin %s: notification failed: %v", rec.ID, err)
		}
	}
	c.JSON(http.StatusCreated, rec)
}

// History lists the caller's own records, newest first.
func (h *Handler) History(c *gin.Context) {
	recs, err := h.records.ListByStudent(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

// Report exports a course's attendance as JSON or CSV.
func (h *Handler) Report(c *gin.Context) {
	courseID := c.Query("course")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course ID is required"})
		return
	}
	format := report.ParseFormat(c.Query("format"))
	course, err := h.catalog.Course(c.Request.Context(), actorFrom(c), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	rows, err := h.records.ListByCourse(c.Request.Context(), course.ID)
	if err != nil {
		fail(c, err)
		return
	}

	if format == report.CSV {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="`+report.Filename(course.Code, format)+`"`)
		c.Status(http.StatusOK)
		if err := report.WriteCSV(c.Writer, rows); err != nil {
			log.Printf("report %s: write csv: %v", course.ID, err)
		}
		return
	}
	if rows == nil {
		rows = []attendance.ReportRow{}
	}
	c.JSON(http.StatusOK, rows)
}
