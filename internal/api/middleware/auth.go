package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/massiyousfi23-source/Emargement/pkg/jwt"
	"github.com/massiyousfi23-source/Emargement/pkg/response"
)

const usernameKey = "username"

// JWTAuth 主管令牌认证中间件
// 仅在 auth.enabled 时挂载；校验 Authorization: Bearer <token> 并写入主管用户名
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, 10002, "缺少或无效的认证头")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

// GetUsername 当前请求的主管用户名；未认证时为空
func GetUsername(c *gin.Context) string {
	return c.GetString(usernameKey)
}
