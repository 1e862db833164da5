package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
)

type courseRequest struct {
	Code        string `json:"code" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type courseUpdateRequest struct {
	Code        *string `json:"code"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type enrollRequest struct {
	Student string `json:"student" binding:"required"`
}

type sessionRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Latitude    *float64  `json:"latitude" binding:"required,latitude"`
	Longitude   *float64  `json:"longitude" binding:"required,longitude"`
	Radius      float64   `json:"radius"`
	IsActive    bool      `json:"is_active"`
}

type sessionUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Latitude    *float64   `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64   `json:"longitude" binding:"omitempty,longitude"`
	Radius      *float64   `json:"radius"`
	IsActive    *bool      `json:"is_active"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateCourse adds a course owned by the caller.
func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), actorFrom(c), attendance.Course{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// ListCourses returns the courses the caller teaches or is enrolled in.
func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.Courses(c.Request.Context(), actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	if courses == nil {
		courses = []attendance.Course{}
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) GetCourse(c *gin.Context) {
	course, err := h.catalog.Course(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	var req courseUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), actorFrom(c), c.Param("id"), attendance.CourseUpdate{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	if err := h.catalog.DeleteCourse(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListStudents returns the enrollments of the course in the path.
func (h *Handler) ListStudents(c *gin.Context) {
	list, err := h.catalog.Students(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []attendance.Enrollment{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) EnrollStudent(c *gin.Context) {
	var req enrollRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.catalog.Enroll(c.Request.Context(), actorFrom(c), c.Param("id"), req.Student)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) UnenrollStudent(c *gin.Context) {
	if err := h.catalog.Unenroll(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("student")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateSession schedules a session under the course in the path.
func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.catalog.CreateSession(c.Request.Context(), actorFrom(c), attendance.Session{
		CourseID:    c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Start:       req.StartTime,
		End:         req.EndTime,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Radius:      req.Radius,
		Active:      req.IsActive,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// ListSessions returns the sessions of the course in the path or the course
// query parameter. Without either it returns every session in the caller's
// courses.
func (h *Handler) ListSessions(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		courseID = c.Query("course")
	}
	sessions, err := h.catalog.Sessions(c.Request.Context(), actorFrom(c), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	if sessions == nil {
		sessions = []attendance.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.catalog.Session(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) UpdateSession(c *gin.Context) {
	var req sessionUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.catalog.UpdateSession(c.Request.Context(), actorFrom(c), c.Param("id"), attendance.SessionUpdate{
		Title:       req.Title,
		Description: req.Description,
		Start:       req.StartTime,
		End:         req.EndTime,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Radius:      req.Radius,
		Active:      req.IsActive,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.catalog.DeleteSession(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetSessionActive opens or closes a session for check-in.
func (h *Handler) SetSessionActive(c *gin.Context) {
	var req activeRequest
	if !bindJSON(c, &req) {
		return
	}
	h.setActive(c, *req.IsActive)
}

// StartSession opens a session for check-in.
func (h *Handler) StartSession(c *gin.Context) { h.setActive(c, true) }

// CloseSession stops accepting check-ins for a session.
func (h *Handler) CloseSession(c *gin.Context) { h.setActive(c, false) }

func (h *Handler) setActive(c *gin.Context, active bool) {
	sess, err := h.catalog.SetActive(c.Request.Context(), actorFrom(c), c.Param("id"), active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
