package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutorhub-backend/internal/handler"
	"github.com/tutorhub/tutorhub-backend/internal/middleware"
	"github.com/tutorhub/tutorhub-backend/pkg/jwt"
)

// Setup registers all API routes
func Setup(router *gin.Engine, content *handler.ContentHandler, lifecycle *handler.LifecycleHandler, jwtManager *jwt.Manager) {
	api := router.Group("/api/v1")
	auth := middleware.JWTAuth(jwtManager)
	optionalAuth := middleware.OptionalJWTAuth(jwtManager)
	reviewer := middleware.RequireReviewer()

	// Tutorials
	tutorials := api.Group("/tutorials")
	tutorials.GET("", optionalAuth, content.ListTutorials)
	tutorials.GET("/:id", content.GetTutorial)
	tutorials.POST("", auth, content.CreateTutorial)
	tutorials.PUT("/:id", auth, content.UpdateTutorial)
	tutorials.DELETE("/:id", auth, content.DeleteTutorial)

	// Pages
	pages := api.Group("/pages")
	pages.GET("", optionalAuth, content.ListPages)
	pages.GET("/:slug", content.GetPage)
	pages.POST("", auth, content.CreatePage)
	pages.PUT("/:id", auth, content.UpdatePage)
	pages.DELETE("/:id", auth, content.DeletePage)

	// Version history
	versions := api.Group("/content/:type/:id/versions")
	versions.Use(auth)
	versions.GET("", lifecycle.ListVersions)
	versions.GET("/:version", lifecycle.GetVersion)
	versions.POST("/:version/restore", lifecycle.RestoreVersion)

	// Scheduled actions
	schedules := api.Group("/schedules")
	schedules.Use(auth)
	schedules.POST("", lifecycle.Schedule)
	schedules.GET("", lifecycle.ListScheduled)
	schedules.DELETE("/:id", lifecycle.CancelScheduled)
	schedules.POST("/execute", reviewer, lifecycle.ExecuteScheduled)

	// Approval workflow
	approvals := api.Group("/approvals")
	approvals.Use(auth)
	approvals.POST("", lifecycle.SubmitForApproval)
	approvals.GET("/pending", reviewer, lifecycle.PendingApprovals)
	approvals.POST("/:id/approve", reviewer, lifecycle.Approve)
	approvals.POST("/:id/reject", reviewer, lifecycle.Reject)
}
