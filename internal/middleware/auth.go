package middleware

import (
	"strings"

	"practice_backend/internal/config"
	"practice_backend/internal/util"
	"practice_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware 校验 PIN 登录后签发的令牌
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("Rejected parent token", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}
		// 令牌只对签发它的学习者有效
		if claims.UserID != cfg.Learner.UserID {
			logger.Log.Warn("Parent token issued for another learner", zap.String("tokenUser", claims.UserID))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// RoleMiddleware 必须放在 AuthMiddleware 之后
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		util.Forbidden(c)
		c.Abort()
	}
}
