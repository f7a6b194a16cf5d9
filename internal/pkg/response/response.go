package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess              = 0
	CodeParamError           = 1000
	CodeAuthFailed           = 1001
	CodePermissionDenied     = 1002
	CodeResourceNotFound     = 1003
	CodeSubscriptionRequired = 1004
	CodePaymentFailed        = 1005
	CodeServerError          = 5000
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:              "success",
	CodeParamError:           "参数错误",
	CodeAuthFailed:           "认证失败",
	CodePermissionDenied:     "权限不足",
	CodeResourceNotFound:     "资源不存在",
	CodeSubscriptionRequired: "订阅已过期或未开通",
	CodePaymentFailed:        "支付失败",
	CodeServerError:          "服务器内部错误",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorWithData 携带数据的错误响应（如支付失败时附交易摘要）
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// SubscriptionError 订阅不可用
func SubscriptionError(c *gin.Context, message string) {
	Error(c, CodeSubscriptionRequired, message)
}

// PaymentError 支付失败
func PaymentError(c *gin.Context, message string) {
	Error(c, CodePaymentFailed, message)
}

// PaymentErrorWithData 支付失败且需要返回交易摘要
func PaymentErrorWithData(c *gin.Context, message string, data interface{}) {
	ErrorWithData(c, CodePaymentFailed, message, data)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}
