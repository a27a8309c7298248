package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/massiyousfi23-source/Emargement/pkg/redis"
	"github.com/massiyousfi23-source/Emargement/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件，用于主管登录
// 计数键为 客户端IP + 路由；rdb 为 nil 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP() + ":" + c.FullPath()
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil || allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
		response.TooManyRequests(c, 10004, "登录尝试过于频繁，请稍后再试")
		c.Abort()
	}
}
