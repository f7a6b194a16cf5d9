package model

import (
	"time"
)

// 订阅状态。status 列仅作展示用途，读取时一律按时间戳重新推导
const (
	SubStatusActive  = "active"
	SubStatusTrial   = "trial"
	SubStatusExpired = "expired"
	SubStatusNone    = "none"
)

type Subscription struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	UserID            int64      `gorm:"not null;index" json:"user_id"`
	Status            string     `gorm:"size:20;default:none;index" json:"status"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `gorm:"index" json:"subscription_end,omitempty"`
	IsTrial           bool       `gorm:"default:false" json:"is_trial"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	Amount            *float64   `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
	PaymentReference  *string    `gorm:"size:100;index" json:"payment_reference,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
