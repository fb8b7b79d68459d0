package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler-api/internal/handler"
	"github.com/noah-isme/class-scheduler-api/internal/middleware"
	"github.com/noah-isme/class-scheduler-api/internal/models"
	"github.com/noah-isme/class-scheduler-api/internal/service"
	"github.com/noah-isme/class-scheduler-api/pkg/config"
	"github.com/noah-isme/class-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-scheduler-api/pkg/middleware/requestid"
)

type routeDeps struct {
	metrics   *service.MetricsService
	verifier  *service.TokenVerifier
	classes   *handler.ClassHandler
	generator *handler.ScheduleGeneratorHandler
	slots     *handler.SlotHandler
	ops       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	r.GET("/metrics", deps.ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(deps.verifier))
	admin := middleware.RequireRoles(models.RoleAdmin)

	classes := api.Group("/classes")
	classes.GET("", deps.classes.List)
	classes.GET("/export", deps.classes.Export)
	classes.POST("/conflicts/check", deps.classes.CheckConflict)
	classes.GET("/sections/available", deps.classes.AvailableSections)
	classes.GET("/rooms/available", deps.classes.AvailableRooms)
	classes.GET("/:id", deps.classes.Get)
	classes.POST("", admin, deps.classes.Create)
	classes.POST("/bulk", admin, deps.classes.Bulk)
	classes.POST("/import", admin, deps.classes.Import)
	classes.PUT("/:id", admin, deps.classes.Update)
	classes.DELETE("/:id", admin, deps.classes.Delete)

	schedules := api.Group("/schedules", admin)
	schedules.POST("/generator", deps.generator.Generate)
	schedules.GET("/proposals/:id", deps.generator.GetProposal)
	schedules.POST("/proposals/:id/accept", deps.generator.Accept)
	schedules.GET("/proposals/:id/options/:option/export", deps.generator.ExportOption)
	schedules.POST("/labs/validate", deps.generator.ValidateLabs)

	slots := api.Group("/slots")
	slots.GET("", deps.slots.List)
	slots.GET("/decode/:token", deps.slots.Decode)
	slots.GET("/encode", deps.slots.Encode)

	return r
}
