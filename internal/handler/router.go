package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Logan1xl/suivie-academique/internal/middleware"
	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth           *AuthHandler
	Staff          *StaffHandler
	Courses        *CourseHandler
	Rooms          *RoomHandler
	Assignments    *AssignmentHandler
	Programmations *ProgrammationHandler
	Metrics        *MetricsHandler
}

// RegisterRoutes mounts the API surface on the engine under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	authorized := api.Group("")
	authorized.Use(middleware.JWT(auth))
	{
		authorized.POST("/auth/logout", h.Auth.Logout)
		authorized.POST("/auth/change-password", h.Auth.ChangePassword)
		authorized.GET("/auth/me", h.Auth.Me)

		staff := authorized.Group("/staff")
		{
			staff.GET("", h.Staff.List)
			staff.GET("/counts", h.Staff.Counts)
			staff.GET("/by-login", h.Staff.GetByLogin)
			staff.GET("/by-phone", h.Staff.GetByPhone)
			staff.GET("/:code", h.Staff.Get)
			staff.GET("/:code/assignments", h.Staff.Assignments)
			staff.PUT("/:code", middleware.RBAC(string(models.RoleStaffManager), "SELF"), h.Staff.Update)
			staff.DELETE("/:code", middleware.RequireRoles(models.RoleStaffManager), h.Staff.Delete)
		}

		courses := authorized.Group("/courses")
		{
			courses.GET("", h.Courses.List)
			courses.GET("/:code", h.Courses.Get)
			courses.GET("/:code/assignments", h.Courses.Assignments)
			courses.POST("", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Courses.Create)
			courses.PUT("/:code", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Courses.Update)
			courses.DELETE("/:code", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Courses.Delete)
		}

		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", h.Rooms.List)
			rooms.GET("/:code", h.Rooms.Get)
			rooms.GET("/:code/availability", h.Rooms.Availability)
			rooms.GET("/:code/today", h.Rooms.Today)
			rooms.POST("", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Rooms.Create)
			rooms.PUT("/:code", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Rooms.Update)
			rooms.DELETE("/:code", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Rooms.Delete)
		}

		assignments := authorized.Group("/assignments")
		{
			assignments.GET("", h.Assignments.List)
			assignments.GET("/counts", h.Assignments.Counts)
			assignments.POST("", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Assignments.Create)
			assignments.DELETE("/:courseCode/:staffCode", middleware.RequireRoles(models.RoleAcademicManager, models.RoleStaffManager), h.Assignments.Delete)
		}

		programmations := authorized.Group("/programmations")
		{
			programmations.GET("", h.Programmations.List)
			programmations.GET("/pending", h.Programmations.Pending)
			programmations.GET("/upcoming", h.Programmations.Upcoming)
			programmations.GET("/stats", h.Programmations.Stats)
			programmations.GET("/export", h.Programmations.Export)
			programmations.GET("/:id", h.Programmations.Get)
			programmations.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleAcademicManager), h.Programmations.Create)
			programmations.PUT("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleAcademicManager), h.Programmations.Update)
			programmations.POST("/:id/validate", middleware.RequireRoles(models.RoleAcademicManager), h.Programmations.Validate)
			programmations.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleAcademicManager), h.Programmations.Delete)
		}

		authorized.GET("/system/metrics", h.Metrics.Snapshot)
	}
}
