package router

import (
	"fmt"
	"strings"

	"github.com/sokoni-shop/internal/cache"
	"github.com/sokoni-shop/internal/config"
	"github.com/sokoni-shop/internal/constants"
	adminhandlers "github.com/sokoni-shop/internal/http/handlers/admin"
	publichandlers "github.com/sokoni-shop/internal/http/handlers/public"
	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/categories", publicHandler.ListCategories)
			public.GET("/categories/tree", publicHandler.CategoryTree)
			public.GET("/categories/:id", publicHandler.GetCategory)
			public.GET("/categories/:id/average-price", publicHandler.CategoryAveragePrice)
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/captcha/image", publicHandler.CaptchaChallenge)
		}

		// 客户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 客户接口（需鉴权）
		customer := apiV1.Group("")
		customer.Use(CustomerJWTAuthMiddleware(c.CustomerAuthService, c.CustomerRepo))
		{
			customer.GET("/me", publicHandler.Profile)
			customer.PUT("/me/profile", publicHandler.UpdateProfile)
			customer.PUT("/me/password", publicHandler.ChangePassword)
			customer.POST("/orders", publicHandler.CreateOrder)
			customer.GET("/orders", publicHandler.ListMyOrders)
			customer.GET("/orders/:id", publicHandler.GetMyOrder)
			customer.POST("/orders/:id/cancel", publicHandler.CancelMyOrder)
			customer.GET("/orders/statistics", publicHandler.MyOrderStatistics)
		}

		// 管理端接口（员工 + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(CustomerJWTAuthMiddleware(c.CustomerAuthService, c.CustomerRepo), StaffRBACMiddleware(c.AuthzService))
		{
			// 仪表盘
			admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
			admin.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
			admin.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

			// 分类管理
			admin.GET("/categories", adminHandler.ListCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

			// 商品管理
			admin.GET("/products", adminHandler.ListProducts)
			admin.GET("/products/:id", adminHandler.GetProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)

			// 订单管理
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

			// 客户管理
			admin.GET("/customers", adminHandler.ListCustomers)
			admin.PATCH("/customers/:id/flags", adminHandler.UpdateCustomerFlags)

			// 权限管理
			admin.GET("/authz/roles", adminHandler.ListRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetRolePolicies)
			admin.POST("/authz/roles/:role/policies", adminHandler.GrantRolePolicy)
			admin.DELETE("/authz/roles/:role/policies", adminHandler.RevokeRolePolicy)
			admin.GET("/customers/:id/roles", adminHandler.GetCustomerRoles)
			admin.PUT("/customers/:id/roles", adminHandler.SetCustomerRoles)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
