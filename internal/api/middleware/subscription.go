package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

// SubscriptionCheck 订阅门禁中间件。状态实时推导，订阅或试用未过期方可访问题库。
// 查询失败时拒绝访问，不降级放行
func SubscriptionCheck(subService *service.SubscriptionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		canAccess, err := subService.CanAccessQuizContent(userID, time.Now())
		if err != nil {
			response.ServerError(c, "订阅状态检查失败")
			c.Abort()
			return
		}

		if !canAccess {
			response.SubscriptionError(c, "订阅已过期或尚未开通，请先订阅")
			c.Abort()
			return
		}

		c.Next()
	}
}
