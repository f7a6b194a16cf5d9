package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
	subService   *service.SubscriptionService
}

func NewAdminHandler(adminService *service.AdminService, subService *service.SubscriptionService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		subService:   subService,
	}
}

// Subscriptions 订阅概览（逐用户行 + 统计卡片）
// GET /api/v1/admin/subscriptions?status=active&search=med2024
func (h *AdminHandler) Subscriptions(c *gin.Context) {
	views, err := h.adminService.ListUserSubscriptions(time.Now())
	if err != nil {
		response.ServerError(c, "")
		return
	}

	// 统计基于全量行，过滤只影响列表
	stats := h.adminService.Stats(views)
	filtered := h.adminService.Filter(views, c.Query("search"), c.Query("status"))

	response.Success(c, gin.H{
		"users": filtered,
		"stats": stats,
	})
}

// SetSubscription 手动调整用户订阅状态
// PUT /api/v1/admin/subscriptions
func (h *AdminHandler) SetSubscription(c *gin.Context) {
	var req dto.SetSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			response.ParamError(c, "subscription_end_date 格式错误，需要 RFC3339")
			return
		}
		endDate = &t
	}

	sub, err := h.subService.SetStatus(c.Request.Context(), req.UserID, req.Status, endDate, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSubStatus):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "订阅状态已更新", sub)
}
