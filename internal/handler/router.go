package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-report-api/internal/middleware"
	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/internal/service"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Student    *StudentHandler
	Subject    *SubjectHandler
	GradeLevel *GradeLevelHandler
	Term       *TermHandler
	Teacher    *TeacherHandler
	School     *SchoolHandler
	User       *UserHandler
	Score      *ScoreHandler
	Import     *ImportHandler
	Report     *ReportHandler
	Export     *ExportHandler
	Remarks    *RemarksHandler
	Dashboard  *DashboardHandler
}

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(r *gin.Engine, authSvc *service.AuthService, h Handlers) {
	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), h.Auth.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), h.Auth.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), h.Auth.Me)
	}

	// Signed download links carry their own expiry, no session needed.
	v1.GET("/exports/download/:token", h.Export.Download)

	authed := v1.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	adminOrHead := middleware.RequireRoles(models.RoleAdmin, models.RoleHeadTeacher)
	scoreWriters := middleware.RequireRoles(models.RoleAdmin, models.RoleHeadTeacher, models.RoleClassTeacher, models.RoleSubjectTeacher)
	remarksWriters := middleware.RequireRoles(models.RoleAdmin, models.RoleHeadTeacher, models.RoleClassTeacher)

	students := authed.Group("/students")
	{
		students.GET("", h.Student.List)
		students.GET("/:id", h.Student.Get)
		students.POST("", adminOnly, h.Student.Create)
		students.PUT("/:id", adminOnly, h.Student.Update)
		students.DELETE("/:id", adminOnly, h.Student.Delete)
		students.GET("/:id/remarks", h.Remarks.Get)
		students.PUT("/:id/remarks", remarksWriters, h.Remarks.Upsert)
	}

	subjects := authed.Group("/subjects")
	{
		subjects.GET("", h.Subject.List)
		subjects.GET("/:id", h.Subject.Get)
		subjects.POST("", adminOnly, h.Subject.Create)
		subjects.PUT("/:id", adminOnly, h.Subject.Update)
		subjects.DELETE("/:id", adminOnly, h.Subject.Delete)
		subjects.POST("/:id/grade-levels", adminOnly, h.Subject.AssignGradeLevel)
	}

	gradeLevels := authed.Group("/grade-levels")
	{
		gradeLevels.GET("", h.GradeLevel.List)
		gradeLevels.GET("/:id", h.GradeLevel.Get)
		gradeLevels.POST("", adminOnly, h.GradeLevel.Create)
		gradeLevels.PUT("/:id", adminOnly, h.GradeLevel.Update)
		gradeLevels.DELETE("/:id", adminOnly, h.GradeLevel.Delete)
	}

	authed.GET("/academic-years", h.Term.ListAcademicYears)
	authed.POST("/academic-years", adminOnly, h.Term.CreateAcademicYear)

	terms := authed.Group("/terms")
	{
		terms.GET("", h.Term.ListTerms)
		terms.GET("/current", h.Term.CurrentPeriod)
		terms.POST("", adminOnly, h.Term.CreateTerm)
		terms.PUT("/:id", adminOnly, h.Term.UpdateTerm)
		terms.POST("/:id/set-current", adminOnly, h.Term.SetCurrentTerm)
		terms.POST("/:id/finalize-scores", adminOnly, h.Term.FinalizeScores)
		terms.POST("/:id/reopen-scores", adminOnly, h.Term.ReopenScores)
	}

	teachers := authed.Group("/teachers")
	{
		teachers.GET("", adminOrHead, h.Teacher.List)
		teachers.GET("/:id", adminOrHead, h.Teacher.Get)
		teachers.POST("", adminOnly, h.Teacher.Create)
		teachers.PUT("/:id", adminOnly, h.Teacher.Update)
		teachers.PUT("/:id/subjects", adminOnly, h.Teacher.AssignSubjects)
	}

	authed.GET("/school", h.School.Get)
	authed.PUT("/school", adminOnly, h.School.Update)

	users := authed.Group("/users", adminOnly)
	{
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.POST("", h.User.Create)
		users.PUT("/:id", h.User.Update)
		users.POST("/:id/reset-password", h.User.ResetPassword)
		users.DELETE("/:id", h.User.Delete)
	}

	scores := authed.Group("/scores")
	{
		scores.GET("", h.Score.List)
		scores.PUT("", scoreWriters, h.Score.Upsert)
		scores.PUT("/bulk", scoreWriters, h.Score.BulkUpsert)
	}

	authed.POST("/imports/scores", adminOrHead, h.Import.ImportScores)

	reports := authed.Group("/reports")
	{
		reports.GET("/students/:id/card", h.Report.StudentCard)
		reports.GET("/grade-levels/:id/sheet", h.Report.ClassSheet)
	}

	exports := authed.Group("/exports")
	{
		exports.POST("", h.Export.Create)
		exports.GET("", h.Export.List)
		exports.GET("/:id", h.Export.Status)
	}

	dashboard := authed.Group("/dashboard", adminOrHead)
	{
		dashboard.GET("/summary", h.Dashboard.Summary)
		dashboard.GET("/metrics", h.Dashboard.Metrics)
	}
}
