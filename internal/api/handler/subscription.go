package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/internal/api/middleware"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type SubscriptionHandler struct {
	subService     *service.SubscriptionService
	paymentService *service.PaymentService
}

func NewSubscriptionHandler(subService *service.SubscriptionService, paymentService *service.PaymentService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subService:     subService,
		paymentService: paymentService,
	}
}

// Status 当前用户订阅状态
// GET /api/v1/subscription/status
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status, err := h.subService.Resolve(userID, time.Now())
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, status)
}

// InitiatePayment 发起订阅支付
// POST /api/v1/subscription/pay
func (h *SubscriptionHandler) InitiatePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.Initiate(c.Request.Context(), userID, &req, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.PaymentError(c, "支付发起失败，请稍后重试")
		}
		return
	}

	response.Success(c, resp)
}

// VerifyPayment 支付结果校验并激活订阅
// POST /api/v1/subscription/verify
func (h *SubscriptionHandler) VerifyPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.Confirm(c.Request.Context(), userID, req.Reference, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotSuccessful):
			// 交易摘要照常返回，前端据此提示
			response.PaymentErrorWithData(c, err.Error(), resp)
		case errors.Is(err, service.ErrReferenceMismatch):
			response.PermissionError(c, err.Error())
		default:
			response.PaymentError(c, "支付校验失败，请稍后重试")
		}
		return
	}

	response.SuccessWithMessage(c, "订阅已激活", resp)
}
