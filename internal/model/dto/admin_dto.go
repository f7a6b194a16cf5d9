package dto

// UserSubscriptionView 管理端逐用户订阅概览行
type UserSubscriptionView struct {
	UserID            int64    `json:"user_id"`
	UserName          string   `json:"user_name"`
	UserEmail         string   `json:"user_email"`
	Status            string   `json:"subscription_status"`
	SubscriptionStart string   `json:"subscription_start,omitempty"`
	SubscriptionEnd   string   `json:"subscription_end,omitempty"`
	TrialEnd          string   `json:"trial_end,omitempty"`
	IsTrial           bool     `json:"is_trial"`
	Amount            *float64 `json:"amount,omitempty"`
	PaymentReference  string   `json:"payment_reference,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

// SubscriptionStats 订阅统计，对全量行做一次归约
type SubscriptionStats struct {
	TotalUsers           int     `json:"total_users"`
	ActiveSubscriptions  int     `json:"active_subscriptions"`
	TrialUsers           int     `json:"trial_users"`
	ExpiredSubscriptions int     `json:"expired_subscriptions"`
	NoSubscription       int     `json:"no_subscription"`
	TotalRevenue         float64 `json:"total_revenue"`
}

// SetSubscriptionRequest 管理员手动调整订阅状态
type SetSubscriptionRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	Status  string `json:"status" binding:"required,oneof=active trial expired none"`
	EndDate string `json:"subscription_end_date,omitempty"` // RFC3339，仅 active 时可选
}
