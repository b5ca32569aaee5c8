package routes

import (
	"thesis-tracker-api/controllers"
	"thesis-tracker-api/middleware"
	"thesis-tracker-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Thesis Tracker API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.POST("", middleware.RequireRole(models.RoleStudent), controllers.CreateSubmission)
				submissions.POST("/:id/revisions", middleware.RequireRole(models.RoleStudent), controllers.CreateRevision)
				submissions.GET("/mine", middleware.RequireRole(models.RoleStudent), controllers.GetMySubmissions)
				submissions.GET("/latest", middleware.RequireRole(models.RoleStudent), controllers.GetLatestSubmission)

				// Reviewer-facing listings are affiliation-scoped
				submissions.GET("/scoped",
					middleware.RequireRole(models.RoleFaculty, models.RoleProgramChair, models.RoleDean),
					controllers.GetScopedSubmissions)

				submissions.GET("/:id", controllers.GetSubmission)
				submissions.GET("/:id/reviews",
					middleware.RequireRole(models.RoleFaculty, models.RoleProgramChair, models.RoleDean, models.RoleAdmin),
					controllers.GetSubmissionReviews)

				// The chair gate, individual verdicts and the final decision;
				// assignment checks happen in the service against review slots.
				submissions.POST("/:id/gate", middleware.RequireRole(models.RoleFaculty), controllers.SetReviewGate)
				submissions.POST("/:id/verdict", middleware.RequireRole(models.RoleFaculty), controllers.PostReviewVerdict)
				submissions.POST("/:id/decision", middleware.RequireRole(models.RoleFaculty), controllers.RecordDecision)
			}

			// Endorsement chains
			endorsements := protected.Group("/endorsements")
			{
				endorsements.POST("/:type", controllers.CreateEndorsementRequest)
				endorsements.POST("/:type/:id/decision",
					middleware.RequireRole(models.RoleFaculty, models.RoleProgramChair, models.RoleDean, models.RoleAdmin),
					controllers.DecideEndorsementRequest)
				endorsements.GET("/:type", controllers.ListEndorsementRequests)
			}

			// Files
			files := protected.Group("/files")
			{
				files.POST("", controllers.UploadFile)
				files.GET("/:id/download", controllers.DownloadFile)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Defense panel rosters (program administration)
			panels := protected.Group("/panels")
			{
				panels.GET("/:studentId", controllers.GetDefensePanel)
				panels.PUT("/:studentId",
					middleware.RequireRole(models.RoleProgramChair, models.RoleAdmin),
					controllers.UpdateDefensePanel)
			}
		}
	}
}
