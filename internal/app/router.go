package app

import (
	"runsight_backend/docs"
	"runsight_backend/internal/middleware"
	"runsight_backend/internal/model"
	"runsight_backend/internal/repository"
	"runsight_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, userRepo *repository.UserRepository) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(userRepo))
	{
		authGroup.GET("/profile", c.user.GetProfile)
		authGroup.PUT("/user/profile", c.user.UpdateProfile)
		authGroup.POST("/user/avatar/upload", c.user.UploadAvatar)

		authGroup.GET("/records", c.record.GetRecords)
		authGroup.PUT("/records/:date", c.record.UpsertRecord)
		authGroup.DELETE("/records/:date", c.record.DeleteRecord)

		analysis := authGroup.Group("/analysis")
		{
			analysis.GET("/acwr", c.analysis.GetACWR)
			analysis.GET("/recovery", c.analysis.GetRecovery)
			analysis.GET("/recommendation", c.analysis.GetRecommendation)
			analysis.GET("/calendar", c.analysis.GetCalendar)
			analysis.GET("/full", c.analysis.GetFull)
			analysis.GET("/optimal-run", c.analysis.GetOptimalRun)
		}

		authGroup.GET("/dashboard", c.dashboard.GetDashboard)

		authGroup.POST("/sync", c.sync.TriggerSync)
		authGroup.GET("/sync/status", c.sync.GetStatus)
	}

	// 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(userRepo), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/users", c.user.ListUsers)
		admin.GET("/users/:id", c.user.GetUser)
		admin.PUT("/users/:id", c.user.UpdateUser)
		admin.PUT("/users/:id/disabled", c.user.SetDisabled)
		admin.POST("/users/:id/sync", c.sync.TriggerSyncForUser)
	}
}
