package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

// GetLatestByUserID 取用户最近创建的订阅记录。历史记录可能累积，以创建时间最新者为准
func (r *SubscriptionRepository) GetLatestByUserID(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByPaymentReference(reference string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("payment_reference = ?", reference).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListAll() ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// MarkExpiredBefore 将有效期已过但状态列仍为 active/trial 的行刷成 expired。
// 仅做展示数据的清理，读取路径不依赖该列
func (r *SubscriptionRepository) MarkExpiredBefore(now time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status IN ?", []string{model.SubStatusActive, model.SubStatusTrial}).
		Where("(is_trial = ? AND trial_end IS NOT NULL AND trial_end < ?) OR (is_trial = ? AND subscription_end IS NOT NULL AND subscription_end < ?)",
			true, now, false, now).
		Update("status", model.SubStatusExpired)
	return result.RowsAffected, result.Error
}
