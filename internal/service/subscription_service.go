package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/pubsub"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

var ErrInvalidSubStatus = errors.New("无效的订阅状态")

type SubscriptionService struct {
	subRepo   *repository.SubscriptionRepository
	publisher *pubsub.Publisher // 可为 nil，通知是尽力而为
	cfg       *config.Config
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, publisher *pubsub.Publisher, cfg *config.Config) *SubscriptionService {
	return &SubscriptionService{
		subRepo:   subRepo,
		publisher: publisher,
		cfg:       cfg,
	}
}

// DeriveStatus 按时间戳推导订阅状态。status 列不可信：
// 试用记录先比对 trial_end，普通记录比对 subscription_end，两者皆无视为 none
func DeriveStatus(sub *model.Subscription, now time.Time) (status string, expiry *time.Time) {
	if sub == nil {
		return model.SubStatusNone, nil
	}

	if sub.IsTrial && sub.TrialEnd != nil {
		if sub.TrialEnd.After(now) {
			return model.SubStatusTrial, sub.TrialEnd
		}
		return model.SubStatusExpired, sub.TrialEnd
	}

	if sub.SubscriptionEnd != nil {
		if sub.SubscriptionEnd.After(now) {
			return model.SubStatusActive, sub.SubscriptionEnd
		}
		return model.SubStatusExpired, sub.SubscriptionEnd
	}

	return model.SubStatusNone, nil
}

// Resolve 解析用户当前订阅状态。数据库出错时不降级放行（fail closed）
func (s *SubscriptionService) Resolve(userID int64, now time.Time) (*dto.SubscriptionStatus, error) {
	sub, err := s.subRepo.GetLatestByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.SubscriptionStatus{Status: model.SubStatusNone}, nil
		}
		return nil, err
	}

	status, expiry := DeriveStatus(sub, now)
	result := &dto.SubscriptionStatus{
		Status:    status,
		CanAccess: status == model.SubStatusActive || status == model.SubStatusTrial,
	}
	if expiry != nil {
		result.ExpiresAt = expiry.Format(time.RFC3339)
	}
	return result, nil
}

// CanAccessQuizContent 题库访问门槛：active 或 trial
func (s *SubscriptionService) CanAccessQuizContent(userID int64, now time.Time) (bool, error) {
	status, err := s.Resolve(userID, now)
	if err != nil {
		return false, err
	}
	return status.CanAccess, nil
}

// ActivateFromPayment 支付核验成功后开通订阅，有效期按配置天数起算。
// 同一 reference 重复核验不二次开通，直接返回已有记录
func (s *SubscriptionService) ActivateFromPayment(ctx context.Context, userID int64, reference string, amountNaira float64, now time.Time) (*model.Subscription, error) {
	existing, err := s.subRepo.GetByPaymentReference(reference)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	start := now
	end := now.AddDate(0, 0, s.cfg.Subscription.DurationDays)

	sub, err := s.subRepo.GetLatestByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if sub == nil {
		sub = &model.Subscription{UserID: userID}
	}

	sub.Status = model.SubStatusActive
	sub.SubscriptionStart = &start
	sub.SubscriptionEnd = &end
	sub.IsTrial = false
	sub.TrialEnd = nil
	sub.Amount = &amountNaira
	sub.PaymentReference = &reference

	if err := s.save(sub); err != nil {
		return nil, err
	}

	s.notify(ctx, userID, model.SubStatusActive, pubsub.SourcePayment)
	return sub, nil
}

// SetStatus 管理员手动调整订阅状态。endDate 仅对 active 生效，缺省按配置天数
func (s *SubscriptionService) SetStatus(ctx context.Context, userID int64, status string, endDate *time.Time, now time.Time) (*model.Subscription, error) {
	sub, err := s.subRepo.GetLatestByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if sub == nil {
		sub = &model.Subscription{UserID: userID}
	}
	sub.Status = status

	switch status {
	case model.SubStatusActive:
		start := now
		sub.SubscriptionStart = &start
		if endDate != nil {
			sub.SubscriptionEnd = endDate
		} else {
			end := now.AddDate(0, 0, s.cfg.Subscription.ManualDays)
			sub.SubscriptionEnd = &end
		}
		sub.IsTrial = false
		sub.TrialEnd = nil

	case model.SubStatusTrial:
		start := now
		trialEnd := now.AddDate(0, 0, s.cfg.Subscription.TrialDays)
		sub.SubscriptionStart = &start
		sub.SubscriptionEnd = nil
		sub.IsTrial = true
		sub.TrialEnd = &trialEnd

	case model.SubStatusExpired:
		// 保留既有时间窗，仅翻转状态列；无结束时间的补记当前时刻
		if sub.SubscriptionEnd == nil && !sub.IsTrial {
			sub.SubscriptionEnd = &now
		}

	case model.SubStatusNone:
		sub.SubscriptionStart = nil
		sub.SubscriptionEnd = nil
		sub.IsTrial = false
		sub.TrialEnd = nil
		sub.Amount = nil
		sub.PaymentReference = nil

	default:
		return nil, ErrInvalidSubStatus
	}

	if err := s.save(sub); err != nil {
		return nil, err
	}

	s.notify(ctx, userID, status, pubsub.SourceAdmin)
	return sub, nil
}

// SweepExpired 将窗口已过的行刷成 expired（仅展示数据清理）
func (s *SubscriptionService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	affected, err := s.subRepo.MarkExpiredBefore(now)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.notify(ctx, 0, model.SubStatusExpired, pubsub.SourceSweep)
	}
	return affected, nil
}

func (s *SubscriptionService) save(sub *model.Subscription) error {
	if sub.ID == 0 {
		return s.subRepo.Create(sub)
	}
	return s.subRepo.Update(sub)
}

func (s *SubscriptionService) notify(ctx context.Context, userID int64, status, source string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishChange(ctx, &pubsub.ChangeMessage{
		UserID: userID,
		Status: status,
		Source: source,
	})
	if err != nil {
		log.Printf("Failed to publish subscription change: %v", err)
	}
}
