package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/authz"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/cache"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	adminhandlers "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/admin"
	pharmacyhandlers "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/pharmacy"
	publichandlers "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/public"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"

	"github.com/gin-gonic/gin"
)

const apiV1Prefix = "/api/v1"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.Z()
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	pharmacyHandler := pharmacyhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "dk"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	pharmacyLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:pharmacy_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"ok": true})
	})

	apiV1 := r.Group(apiV1Prefix)
	{
		// 顾客接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.POST("/quote", publicHandler.Quote)
			public.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), publicHandler.Checkout)
			public.GET("/track/:code", publicHandler.TrackOrder)
			public.GET("/track/:code/stream", publicHandler.TrackOrderStream)
		}

		apiV1.POST("/payments/webhook/paystack", publicHandler.PaystackWebhook)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.Login)

			authorized := admin.Group("")
			authorized.Use(
				OperatorJWTMiddleware(cfg.JWT.SecretKey, c.AuthService, constants.RoleAdmin),
				AdminAllowListMiddleware(cfg.Security.AdminEmails),
				OperatorRBACMiddleware(c.AuthzService),
			)
			{
				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/transition", adminHandler.TransitionOrder)
				authorized.POST("/orders/:id/status", adminHandler.ForceOrderStatus)
				authorized.POST("/orders/:id/assign", adminHandler.AssignOrder)
				authorized.POST("/orders/:id/reassign", adminHandler.ReassignOrder)

				// 药房管理
				authorized.GET("/pharmacies", adminHandler.ListPharmacies)
				authorized.POST("/pharmacies", adminHandler.CreatePharmacy)
				authorized.PUT("/pharmacies/:id", adminHandler.UpdatePharmacy)

				// 通知审计
				authorized.GET("/notifications", adminHandler.ListNotificationAttempts)

				// 实时推送
				authorized.GET("/stream", adminHandler.OrdersStream)

				// 权限目录
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildPermissionCatalog(r))
				})
			}
		}

		// 药房接口
		pharmacy := apiV1.Group("/pharmacy")
		{
			pharmacy.POST("/login", RateLimitMiddleware(redisClient, pharmacyLoginRule, KeyByIPAndJSONField("username")), pharmacyHandler.Login)

			authorized := pharmacy.Group("")
			authorized.Use(
				OperatorJWTMiddleware(cfg.JWT.SecretKey, c.AuthService, constants.RolePharmacy),
				OperatorRBACMiddleware(c.AuthzService),
			)
			{
				authorized.GET("/orders", pharmacyHandler.ListOrders)
				authorized.POST("/orders/:id/accept", pharmacyHandler.AcceptOrder)
				authorized.POST("/orders/:id/decline", pharmacyHandler.DeclineOrder)
				authorized.POST("/orders/:id/out-for-delivery", pharmacyHandler.MarkOutForDelivery)
				authorized.GET("/stream", pharmacyHandler.OrdersStream)
			}
		}
	}

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !isOperatorRoute(item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// 登录入口不参与授权
func isOperatorRoute(path string) bool {
	for _, group := range []string{"/admin/", "/pharmacy/"} {
		prefix := apiV1Prefix + group
		if strings.HasPrefix(path, prefix) {
			return path != prefix+"login"
		}
	}
	return false
}

// 模块取 /admin/orders/:id 中的 orders
func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	return segments[0] + "." + segments[1]
}
