package http

import (
	"strings"

	"github.com/google/uuid"

	"github.com/JackieWYB/majiang-sub000/common/jwts"
)

// ContextUserID 认证中间件写入上下文的用户 ID 键
const ContextUserID = "userId"

// CorsMiddleware 跨域中间件
func CorsMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		origin := c.GetHeader("Origin")

		if origin != "" {
			c.SetHeader("Access-Control-Allow-Origin", "*")
			c.SetHeader("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.SetHeader("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, Token")
			c.SetHeader("Access-Control-Allow-Credentials", "true")
		}

		// 处理预检请求
		if c.Method() == "OPTIONS" {
			c.AbortWithStatus(204)
			return nil
		}

		return nil
	}
}

// AuthMiddleware 认证中间件，校验 accessToken 并把用户 ID 放入上下文
func AuthMiddleware(secret string) MiddlewareFunc {
	return func(c *Context) error {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.GetHeader("Token")
		}
		if token == "" {
			token = c.GetQuery("token")
		}

		if token == "" {
			c.Unauthorized("缺少 token")
			c.Abort()
			return nil
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwts.ParseAccessToken(token, secret)
		if err != nil {
			c.Unauthorized("token 校验失败")
			c.Abort()
			return nil
		}

		c.Set(ContextUserID, claims.UserID)
		return nil
	}
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("requestId", requestID)
		c.SetHeader("X-Request-ID", requestID)

		return nil
	}
}
