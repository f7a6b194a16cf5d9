package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/paystack"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

var (
	ErrPaymentNotSuccessful = errors.New("支付未成功，订阅未激活")
	ErrReferenceMismatch    = errors.New("支付单据与当前用户不匹配")
)

// PaymentGateway 支付网关接口，便于测试替换
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amountKobo int64, currency, reference, callbackURL string, metadata map[string]interface{}) (*paystack.InitResult, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// ReceiptSender 支付回执邮件接口
type ReceiptSender interface {
	SendPaymentReceipt(to, name, reference string, amountNaira float64, expiresAt string) error
}

type PaymentService struct {
	gateway    PaymentGateway
	userRepo   *repository.UserRepository
	subService *SubscriptionService
	email      ReceiptSender // 可为 nil
	cfg        *config.Config
}

func NewPaymentService(gateway PaymentGateway, userRepo *repository.UserRepository, subService *SubscriptionService, email ReceiptSender, cfg *config.Config) *PaymentService {
	return &PaymentService{
		gateway:    gateway,
		userRepo:   userRepo,
		subService: subService,
		email:      email,
		cfg:        cfg,
	}
}

// Initiate 向网关发起交易，返回托管支付页地址。
// 单据号带用户与毫秒时间戳，保证全局唯一且可溯源
func (s *PaymentService) Initiate(ctx context.Context, userID int64, req *dto.InitiatePaymentRequest, now time.Time) (*dto.InitiatePaymentResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	amount := req.Amount
	if amount <= 0 {
		amount = s.cfg.Subscription.DefaultAmount
	}
	planName := req.PlanName
	if planName == "" {
		planName = s.cfg.Subscription.PlanName
	}

	email := fmt.Sprintf("%s@medquiz.app", user.MatricNumber)
	if user.Email != nil && *user.Email != "" {
		email = *user.Email
	}

	reference := fmt.Sprintf("sub_%d_%d", userID, now.UnixMilli())
	metadata := map[string]interface{}{
		"user_id":   userID,
		"plan_name": planName,
	}

	result, err := s.gateway.Initialize(ctx, email, amount, s.cfg.Paystack.Currency, reference, s.cfg.Paystack.CallbackURL, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.InitiatePaymentResponse{
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        result.Reference,
	}, nil
}

// Confirm 向网关核实交易并激活订阅。以网关返回为准，前端回调参数不可信
func (s *PaymentService) Confirm(ctx context.Context, userID int64, reference string, now time.Time) (*dto.VerifyPaymentResponse, error) {
	tx, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	view := &dto.TransactionView{
		Reference: tx.Reference,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Status:    tx.Status,
	}

	if tx.Status != "success" {
		return &dto.VerifyPaymentResponse{
			Status:      tx.Status,
			Transaction: view,
		}, ErrPaymentNotSuccessful
	}

	// 单据凭 metadata 回指用户，防止拿他人单据号激活自己的订阅
	if uid, ok := metadataUserID(tx.Metadata); ok && uid != userID {
		return nil, ErrReferenceMismatch
	}

	amountNaira := float64(tx.Amount) / 100
	sub, err := s.subService.ActivateFromPayment(ctx, userID, tx.Reference, amountNaira, now)
	if err != nil {
		return nil, err
	}

	status, err := s.subService.Resolve(userID, now)
	if err != nil {
		return nil, err
	}

	// 回执邮件失败不影响激活
	if s.email != nil {
		if user, err := s.userRepo.GetByID(userID); err == nil && user.Email != nil {
			to, name := *user.Email, user.DisplayName
			expiresAt := ""
			if sub.SubscriptionEnd != nil {
				expiresAt = sub.SubscriptionEnd.Format("2006-01-02")
			}
			go func() {
				if err := s.email.SendPaymentReceipt(to, name, tx.Reference, amountNaira, expiresAt); err != nil {
					log.Printf("Failed to send payment receipt to %s: %v", to, err)
				}
			}()
		}
	}

	return &dto.VerifyPaymentResponse{
		Status:       tx.Status,
		Transaction:  view,
		Subscription: status,
	}, nil
}

// metadataUserID 从网关 metadata 中取 user_id。JSON 数字默认解析为 float64
func metadataUserID(metadata map[string]interface{}) (int64, bool) {
	raw, ok := metadata["user_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
