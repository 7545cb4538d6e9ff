package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/authz"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	handlershared "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const operatorAllowListedKey = "operator_allow_listed"

// TokenVerifier 操作员 token 校验
type TokenVerifier interface {
	ParseJWT(tokenString string) (*service.JWTClaims, error)
	CurrentTokenVersion(ctx context.Context, operatorID uint) (uint64, bool, error)
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// OperatorJWTMiddleware 操作员 JWT 鉴权中间件，role 为该入口要求的登录角色
func OperatorJWTMiddleware(secretKey string, verifier TokenVerifier, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		if verifier == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// EventSource 无法设置请求头，SSE 允许通过 query 传 token
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if authHeader == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims, err := verifier.ParseJWT(parts[1])
		if err != nil || claims == nil || claims.OperatorID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if role != "" && claims.Role != role {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		version, found, err := verifier.CurrentTokenVersion(c.Request.Context(), claims.OperatorID)
		if err != nil || !found {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if claims.TokenVersion != version {
			abortUnauthorized(c, "error.token_revoked")
			return
		}

		c.Set(handlershared.ContextOperatorID, claims.OperatorID)
		c.Set(handlershared.ContextUsername, claims.Username)
		c.Set(handlershared.ContextOperatorEmail, claims.Email)
		c.Set(handlershared.ContextOperatorRole, claims.Role)
		c.Next()
	}
}

// AdminAllowListMiddleware 白名单邮箱的管理员跳过 RBAC 判定
func AdminAllowListMiddleware(adminEmails []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.GetString(handlershared.ContextOperatorEmail)))
		if _, ok := allowed[email]; ok && email != "" {
			c.Set(operatorAllowListedKey, true)
		}
		c.Next()
	}
}

// OperatorRBACMiddleware 操作员路由级 RBAC 鉴权中间件
func OperatorRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(operatorAllowListedKey) {
			c.Next()
			return
		}
		if authzService == nil {
			logger.Errorw("operator_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		operatorID := c.GetUint(handlershared.ContextOperatorID)
		if operatorID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceOperator(operatorID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("operator_rbac_enforce_failed",
				"operator_id", operatorID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("operator_rbac_permission_denied",
				"operator_id", operatorID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, handlershared.Message("error.forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, handlershared.Message(key))
	c.Abort()
}
