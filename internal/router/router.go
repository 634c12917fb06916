package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/internal/handlers"
	"github.com/workqueue-dev/workqueue/internal/middleware"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Static("/uploads", "./uploads")

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/deadlines", handlers.DeadlineFeed)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("/profile", handlers.GetProfile)
			users.PATCH("/profile", handlers.UpdateProfile)
			users.POST("/change-password", handlers.ChangePassword)
			users.POST("/labels", handlers.AddLabel)
			users.DELETE("/labels", handlers.RemoveLabel)

			users.GET("/admins", handlers.ListAdmins)
			users.GET("/content/:type", handlers.GetStudentContent)
			users.GET("/deadlines/upcoming", handlers.UpcomingDeadlines)

			users.POST("/submissions", handlers.UploadSubmission)
			users.POST("/tests/:id/response", handlers.UploadTestResponse)
			users.GET("/my-submissions/:type", handlers.GetMySubmissions)
			users.POST("/submissions/:id/appeal", handlers.SubmitAppeal)
			users.GET("/submissions/:id/feedback", handlers.GetFeedback)
		}

		admins := api.Group("/admins", middleware.AuthMiddleware(models.RoleAdmin))
		{
			admins.POST("/assignments", handlers.CreateAssignment)
			admins.POST("/tests", handlers.CreateTest)
			admins.POST("/notes", handlers.CreateNote)
			admins.POST("/lectures", handlers.CreateLecture)
			admins.GET("/content/:type", handlers.GetAdminContent)

			admins.GET("/submissions", handlers.GetAdminSubmissions)
			admins.POST("/submissions/:id/accept", handlers.AcceptSubmission)
			admins.POST("/submissions/:id/reject", handlers.RejectSubmission)
			admins.POST("/submissions/:id/feedback", handlers.ProvideFeedback)

			admins.GET("/deadlines/upcoming", handlers.UpcomingDeadlinesOverview)
			admins.POST("/reminders/trigger", handlers.TriggerReminderScan)
			admins.POST("/reminders/reset", handlers.ResetWarningFlags)
		}

		heads := api.Group("/heads", middleware.AuthMiddleware(models.RoleHead))
		{
			heads.GET("/submissions", handlers.ListSubmissions)
			heads.GET("/content", handlers.ListAllContent)
			heads.POST("/submissions/:id/overturn", handlers.OverturnDecision)
			heads.GET("/appeals", handlers.GetAppeals)
			heads.POST("/appeals/:id/decision", handlers.HandleAppealDecision)
			heads.POST("/submissions/:id/feedback", handlers.ProvideFeedback)

			heads.PATCH("/assignments/:id/deadline", handlers.ChangeDeadline)
			heads.GET("/assignments/:id/deadline-history", handlers.DeadlineHistory)
			heads.GET("/deadlines/upcoming", handlers.UpcomingDeadlinesOverview)

			heads.POST("/reminders/trigger", handlers.TriggerReminderScan)
			heads.POST("/reminders/reset", handlers.ResetWarningFlags)
		}
	}

	return r
}
