package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/paystack"
	"github.com/qs3c/medquiz_go_server/internal/repository"
	"github.com/qs3c/medquiz_go_server/internal/testutil"
)

// fakeGateway 记录调用参数并返回预置结果
type fakeGateway struct {
	initEmail    string
	initAmount   int64
	initCurrency string
	initRef      string
	initCallback string

	verifyTx  *paystack.Transaction
	verifyErr error
}

func (g *fakeGateway) Initialize(ctx context.Context, email string, amountKobo int64, currency, reference, callbackURL string, metadata map[string]interface{}) (*paystack.InitResult, error) {
	g.initEmail = email
	g.initAmount = amountKobo
	g.initCurrency = currency
	g.initRef = reference
	g.initCallback = callbackURL
	return &paystack.InitResult{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		AccessCode:       "abc123",
		Reference:        reference,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*paystack.Transaction, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyTx, nil
}

func setupPaymentService(t *testing.T) (*PaymentService, *fakeGateway, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	cfg := &config.Config{
		Paystack: config.PaystackConfig{
			Currency:    "NGN",
			CallbackURL: "https://medquiz.app/payment/callback",
		},
		Subscription: config.SubscriptionConfig{
			DefaultAmount: 100000,
			PlanName:      "Annual Access",
			DurationDays:  365,
		},
	}

	gateway := &fakeGateway{}
	subService := NewSubscriptionService(subRepo, nil, cfg)
	service := NewPaymentService(gateway, userRepo, subService, nil, cfg)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return service, gateway, db, cleanup
}

func TestPaymentService_Initiate(t *testing.T) {
	service, gateway, db, cleanup := setupPaymentService(t)
	defer cleanup()

	user := testutil.TestUser(t, db, testutil.WithEmail("student@example.com"))

	now := time.Now()
	resp, err := service.Initiate(context.Background(), user.ID, &dto.InitiatePaymentRequest{}, now)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, "student@example.com", gateway.initEmail)
	// Default amount from config, in kobo
	assert.Equal(t, int64(100000), gateway.initAmount)
	assert.Equal(t, "NGN", gateway.initCurrency)
	assert.Equal(t, "https://medquiz.app/payment/callback", gateway.initCallback)
	assert.True(t, strings.HasPrefix(resp.Reference, "sub_"))
}

func TestPaymentService_Initiate_CustomAmount(t *testing.T) {
	service, gateway, db, cleanup := setupPaymentService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	_, err := service.Initiate(context.Background(), user.ID, &dto.InitiatePaymentRequest{
		Amount: 250000,
	}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(250000), gateway.initAmount)
}

func TestPaymentService_Initiate_UnknownUser(t *testing.T) {
	service, _, _, cleanup := setupPaymentService(t)
	defer cleanup()

	_, err := service.Initiate(context.Background(), 99999, &dto.InitiatePaymentRequest{}, time.Now())
	assert.Equal(t, ErrUserNotFound, err)
}

func TestPaymentService_Confirm_Success(t *testing.T) {
	service, gateway, db, cleanup := setupPaymentService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	gateway.verifyTx = &paystack.Transaction{
		Reference: "sub_ref_1",
		Amount:    100000,
		Currency:  "NGN",
		Status:    "success",
		Metadata:  map[string]interface{}{"user_id": float64(user.ID)},
	}

	now := time.Now()
	resp, err := service.Confirm(context.Background(), user.ID, "sub_ref_1", now)
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Subscription)
	assert.Equal(t, model.SubStatusActive, resp.Subscription.Status)
	assert.True(t, resp.Subscription.CanAccess)

	// Amount stored in naira, window runs for the configured days
	var sub model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	require.NotNil(t, sub.Amount)
	assert.Equal(t, float64(1000), *sub.Amount)
	require.NotNil(t, sub.SubscriptionEnd)
	assert.WithinDuration(t, now.AddDate(0, 0, 365), *sub.SubscriptionEnd, time.Second)
}

func TestPaymentService_Confirm_NotSuccessful(t *testing.T) {
	service, gateway, db, cleanup := setupPaymentService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	gateway.verifyTx = &paystack.Transaction{
		Reference: "sub_ref_2",
		Amount:    100000,
		Currency:  "NGN",
		Status:    "failed",
	}

	resp, err := service.Confirm(context.Background(), user.ID, "sub_ref_2", time.Now())
	assert.Equal(t, ErrPaymentNotSuccessful, err)
	// Transaction summary still returned for the frontend
	require.NotNil(t, resp)
	assert.Equal(t, "failed", resp.Status)

	// No subscription activated
	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPaymentService_Confirm_ReferenceMismatch(t *testing.T) {
	service, gateway, db, cleanup := setupPaymentService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	gateway.verifyTx = &paystack.Transaction{
		Reference: "sub_ref_3",
		Amount:    100000,
		Currency:  "NGN",
		Status:    "success",
		Metadata:  map[string]interface{}{"user_id": float64(user.ID + 1)},
	}

	_, err := service.Confirm(context.Background(), user.ID, "sub_ref_3", time.Now())
	assert.Equal(t, ErrReferenceMismatch, err)
}

func TestMetadataUserID(t *testing.T) {
	uid, ok := metadataUserID(map[string]interface{}{"user_id": float64(42)})
	assert.True(t, ok)
	assert.Equal(t, int64(42), uid)

	_, ok = metadataUserID(map[string]interface{}{})
	assert.False(t, ok)

	_, ok = metadataUserID(map[string]interface{}{"user_id": "42"})
	assert.False(t, ok)
}
