package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/httpmiddleware"
)

// RouterConfig carries the settings the HTTP surface needs.
type RouterConfig struct {
	SigningKey      string
	Issuer          string
	RateLimitPerMin int
}

// Router builds the gin engine with every route and the shared middleware.
func Router(h *Handler, cfg RouterConfig) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1", auth.Bearer(cfg.SigningKey, cfg.Issuer))
	if cfg.RateLimitPerMin > 0 {
		v1.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())
	}

	staff := auth.RequireRole(attendance.RoleStaff, attendance.RoleAdmin)

	v1.POST("/attendance/submit", h.Submit)
	v1.GET("/attendance/student", h.History)
	v1.GET("/attendance/report", staff, h.Report)

	v1.GET("/courses", h.ListCourses)
	v1.POST("/courses", staff, h.CreateCourse)
	v1.GET("/courses/:id", h.GetCourse)
	v1.PATCH("/courses/:id", staff, h.UpdateCourse)
	v1.DELETE("/courses/:id", staff, h.DeleteCourse)
	v1.GET("/courses/:id/students", staff, h.ListStudents)
	v1.POST("/courses/:id/students", staff, h.EnrollStudent)
	v1.DELETE("/courses/:id/students/:student", staff, h.UnenrollStudent)
	v1.GET("/courses/:id/sessions", h.ListSessions)
	v1.POST("/courses/:id/sessions", staff, h.CreateSession)

	v1.GET("/sessions", h.ListSessions)
	v1.GET("/sessions/:id", h.GetSession)
	v1.PATCH("/sessions/:id", staff, h.UpdateSession)
	v1.DELETE("/sessions/:id", staff, h.DeleteSession)
	v1.PATCH("/sessions/:id/active", staff, h.SetSessionActive)
	v1.POST("/sessions/:id/start", staff, h.StartSession)
	v1.POST("/sessions/:id/close", staff, h.CloseSession)

	if h.notify != nil {
		v1.GET("/notifications", h.ListNotifications)
		v1.PATCH("/notifications/:id/read", h.MarkRead)
		v1.POST("/notifications/read-all", h.MarkAllRead)
		v1.POST("/notifications/devices", h.RegisterDevice)
		v1.POST("/notifications/devices/unregister", h.UnregisterDevice)
	}
	return r
}
