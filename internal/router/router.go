package router

import (
	"fmt"
	"strings"

	"github.com/chengpei-next/internal/cache"
	"github.com/chengpei-next/internal/config"
	opshandlers "github.com/chengpei-next/internal/http/handlers/ops"
	"github.com/chengpei-next/internal/http/response"
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	opsHandler := opshandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cp"
	}
	redisClient := cache.Client()
	dispatchRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:dispatch", redisPrefix),
		WindowSeconds: 10,
		MaxRequests:   3,
		Message:       "发车请求过于频繁，请稍后再试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		ops := apiV1.Group("/ops")
		ops.Use(OperatorAuthMiddleware(cfg.JWT.SecretKey))
		{
			// 路线
			ops.POST("/routes", opsHandler.CreateRoute)
			ops.GET("/routes", opsHandler.ListRoutes)
			ops.GET("/routes/:id", opsHandler.GetRoute)
			ops.POST("/routes/:id/orders", opsHandler.AddOrderToRoute)
			ops.DELETE("/routes/:id/orders/:order_id", opsHandler.RemoveOrderFromRoute)
			ops.POST("/routes/:id/cancel", opsHandler.CancelRoute)

			// 发车与库存
			ops.POST("/routes/:id/dispatch",
				RateLimitMiddleware(redisClient, dispatchRule, KeyByRouteParam("id")),
				opsHandler.DispatchRoute)
			ops.POST("/routes/:id/stock/reverse", opsHandler.ReverseRouteStock)
			ops.GET("/routes/:id/movements", opsHandler.ListRouteMovements)

			// 装车与回单
			ops.PUT("/route-orders/:id/loading-status", opsHandler.SetLoadingStatus)
			ops.POST("/route-orders/:id/reconcile", opsHandler.ReconcileReturn)

			// 原因字典
			ops.GET("/reasons", opsHandler.ListReasons)
			ops.POST("/reasons", opsHandler.CreateReason)

			// 订单
			ops.GET("/orders", opsHandler.ListOrders)
			ops.GET("/orders/:id", opsHandler.GetOrder)
			ops.POST("/orders/import", opsHandler.ImportOrder)

			// 审计日志
			ops.GET("/audit-logs", opsHandler.ListAuditLogs)
		}
	}

	return r
}
