package dto

// SubscriptionStatus 当前用户订阅状态（按时间戳实时推导）
type SubscriptionStatus struct {
	Status    string `json:"status"` // active, trial, expired, none
	ExpiresAt string `json:"expires_at,omitempty"`
	CanAccess bool   `json:"can_access"`
}

// InitiatePaymentRequest 发起支付请求
type InitiatePaymentRequest struct {
	Amount   int64  `json:"amount,omitempty"` // kobo，缺省取配置
	PlanName string `json:"plan_name,omitempty"`
}

// InitiatePaymentResponse 发起支付响应
type InitiatePaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyPaymentRequest 支付校验请求
type VerifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// VerifyPaymentResponse 支付校验响应
type VerifyPaymentResponse struct {
	Status       string              `json:"status"`
	Transaction  *TransactionView    `json:"transaction,omitempty"`
	Subscription *SubscriptionStatus `json:"subscription,omitempty"`
}

// TransactionView 网关交易摘要
type TransactionView struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"` // kobo
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}
