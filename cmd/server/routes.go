package main

import (
	"github.com/gin-gonic/gin"

	"github.com/unithq/cqhub-go/internal/auth"
	"github.com/unithq/cqhub-go/internal/database"
	"github.com/unithq/cqhub-go/internal/handlers"
	"github.com/unithq/cqhub-go/internal/middleware"
	"github.com/unithq/cqhub-go/internal/roles"
	"github.com/unithq/cqhub-go/internal/store"
)

func setupRouter(env *handlers.Env, jwtService *auth.JWTService, companyDBs *database.CompanyDBManager, platformDB *database.PlatformDB, hub *store.Hub, baseDomain string) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CompanyMiddleware(companyDBs, baseDomain))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := 200
		if err := platformDB.Health(c.Request.Context()); err != nil {
			status = "degraded"
			code = 503
		}
		c.JSON(code, gin.H{
			"status":      status,
			"version":     Version,
			"subscribers": hub.SubscriberCount(),
		})
	})

	// Version endpoint
	r.GET("/api/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version": Version,
			"service": "cqhub-go",
		})
	})

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "CQHub API",
			"version": Version,
		})
	})

	// Login needs a company context but no token yet
	r.POST("/api/auth/login", middleware.RequireCompany(), env.Login)

	api := r.Group("/api")
	api.Use(middleware.RequireCompany(), middleware.RequireAuth(jwtService))
	{
		// Profile
		api.GET("/me", env.GetMe)
		api.PUT("/me", env.UpdateProfile)
		api.POST("/me/push-tokens", env.RegisterPushToken)
		api.DELETE("/me/push-tokens", env.RemovePushToken)

		// Personnel roster
		api.GET("/personnel", env.ListPersonnel)
		api.GET("/personnel/:id", env.GetPersonnel)
		manage := api.Group("", middleware.RequirePermission(roles.PermManagePersonnel))
		{
			manage.POST("/personnel", env.CreatePersonnel)
			manage.PUT("/personnel/:id", env.UpdatePersonnel)
			manage.DELETE("/personnel/:id", env.DeactivatePersonnel)
			manage.GET("/personnel/export", env.ExportPersonnelCSV)
			manage.POST("/personnel/import", env.ImportPersonnelCSV)
		}

		// CQ schedule
		api.GET("/schedule", env.ListSchedule)
		api.GET("/schedule/my-shift", env.MyShiftTonight)
		sched := api.Group("", middleware.RequirePermission(roles.PermManageSchedule))
		{
			sched.POST("/schedule/generate", env.GenerateSchedule)
			sched.POST("/schedule/skip", env.SkipScheduleDate)
			sched.PUT("/schedule/:id/slot", env.ReassignScheduleSlot)
		}

		// Swap requests
		api.GET("/swaps", env.ListSwapRequests)
		api.POST("/swaps", env.CreateSwapRequest)
		api.POST("/swaps/:id/cancel", env.CancelSwapRequest)
		swapApprove := api.Group("", middleware.RequirePermission(roles.PermApproveSwap))
		{
			swapApprove.POST("/swaps/:id/approve", env.ApproveSwapRequest)
			swapApprove.POST("/swaps/:id/reject", env.RejectSwapRequest)
		}

		// Liberty requests
		api.GET("/liberty", env.ListLibertyRequests)
		api.GET("/liberty/mine", env.ListMyLibertyRequests)
		api.POST("/liberty", env.CreateLibertyRequest)
		api.POST("/liberty/:id/cancel", env.CancelLibertyRequest)
		api.POST("/liberty/:id/slots/:slot/join", env.JoinLibertyTimeSlot)
		api.POST("/liberty/:id/slots/:slot/leave", env.LeaveLibertyTimeSlot)
		libApprove := api.Group("", middleware.RequirePermission(roles.PermApproveLiberty))
		{
			libApprove.POST("/liberty/:id/approve", env.ApproveLibertyRequest)
			libApprove.POST("/liberty/:id/reject", env.RejectLibertyRequest)
			libApprove.POST("/liberty/bulk-approve", env.BulkApproveLibertyRequests)
			libApprove.POST("/liberty/bulk-reject", env.BulkRejectLibertyRequests)
		}

		// Weather and uniform recommendations
		api.GET("/weather", env.CurrentWeather)
		api.GET("/weather/recommendations", env.ListRecommendations)
		weatherManage := api.Group("", middleware.RequirePermission(roles.PermManageWeather))
		{
			weatherManage.POST("/weather/recommendations", env.RunRecommendation)
			weatherManage.POST("/weather/recommendations/:id/decide", env.DecideRecommendation)
			weatherManage.GET("/weather/rules", env.ListWeatherRules)
			weatherManage.PUT("/weather/rules", env.ReplaceWeatherRules)
		}

		// Details
		api.GET("/details/types", env.ListDetailTypes)
		api.GET("/details", env.ListDetailAssignments)
		api.POST("/details/:id/claim", env.ClaimDetail)
		api.POST("/details/:id/complete", env.CompleteDetail)
		detailManage := api.Group("", middleware.RequirePermission(roles.PermVerifyDetails))
		{
			detailManage.POST("/details/types", env.CreateDetailType)
			detailManage.POST("/details", env.CreateDetailAssignment)
			detailManage.POST("/details/:id/verify", env.VerifyDetail)
		}

		// Settings
		api.GET("/settings", env.GetSettings)
		api.PUT("/settings/:key", middleware.RequirePermission(roles.PermManageSettings), env.UpdateSetting)

		// Reports
		api.GET("/reports/duty-history", env.DutyHistoryReport)

		// Server-sent events
		api.GET("/events", env.StreamEvents)
	}

	return r
}
