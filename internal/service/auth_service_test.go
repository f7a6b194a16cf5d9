package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/pubsub"
	"github.com/qs3c/medquiz_go_server/internal/repository"
	"github.com/qs3c/medquiz_go_server/internal/testutil"
)

func setupAuthService(t *testing.T) (*AuthService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-for-testing",
			ExpireHours: 24,
		},
		Subscription: config.SubscriptionConfig{
			DurationDays: 365,
			ManualDays:   30,
			TrialDays:    3,
		},
	}

	subService := NewSubscriptionService(subRepo, nil, cfg)
	service := NewAuthService(userRepo, subService, nil, nil, cfg)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return service, db, cleanup
}

func TestAuthService_Register_Success(t *testing.T) {
	service, db, cleanup := setupAuthService(t)
	defer cleanup()

	resp, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "MED12345",
		Password:     "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.UserID)

	// Matric number is stored lowercased, email derived from it
	var user model.User
	require.NoError(t, db.First(&user, resp.UserID).Error)
	assert.Equal(t, "med12345", user.MatricNumber)
	require.NotNil(t, user.Email)
	assert.Equal(t, "med12345@medquiz.app", *user.Email)
}

func TestAuthService_Register_ExplicitEmail(t *testing.T) {
	service, db, cleanup := setupAuthService(t)
	defer cleanup()

	resp, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "med20001",
		Email:        "Ada@Example.com",
		Password:     "password123",
	})
	require.NoError(t, err)

	var user model.User
	require.NoError(t, db.First(&user, resp.UserID).Error)
	require.NotNil(t, user.Email)
	assert.Equal(t, "ada@example.com", *user.Email)
}

func TestAuthService_Register_DuplicateMatricNumber(t *testing.T) {
	service, _, cleanup := setupAuthService(t)
	defer cleanup()

	req := &dto.RegisterRequest{
		Name:         "User One",
		MatricNumber: "med30001",
		Password:     "password123",
	}
	_, err := service.Register(req)
	require.NoError(t, err)

	// Case-insensitive match
	_, err = service.Register(&dto.RegisterRequest{
		Name:         "User Two",
		MatricNumber: "MED30001",
		Password:     "password456",
	})
	assert.Equal(t, ErrMatricNumberExists, err)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	service, _, cleanup := setupAuthService(t)
	defer cleanup()

	_, err := service.Register(&dto.RegisterRequest{
		Name:         "User One",
		MatricNumber: "med40001",
		Email:        "shared@example.com",
		Password:     "password123",
	})
	require.NoError(t, err)

	_, err = service.Register(&dto.RegisterRequest{
		Name:         "User Two",
		MatricNumber: "med40002",
		Email:        "shared@example.com",
		Password:     "password123",
	})
	assert.Equal(t, ErrEmailExists, err)
}

func TestAuthService_Login_Success(t *testing.T) {
	service, _, cleanup := setupAuthService(t)
	defer cleanup()

	_, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "med50001",
		Password:     "password123",
	})
	require.NoError(t, err)

	resp, err := service.Login(&dto.LoginRequest{
		MatricNumber: "med50001",
		Password:     "password123",
	}, time.Now())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "med50001", resp.User.MatricNumber)
	assert.Equal(t, model.SubStatusNone, resp.User.SubscriptionStatus)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	service, _, cleanup := setupAuthService(t)
	defer cleanup()

	_, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "med60001",
		Password:     "password123",
	})
	require.NoError(t, err)

	_, err = service.Login(&dto.LoginRequest{
		MatricNumber: "med60001",
		Password:     "wrong-password",
	}, time.Now())
	assert.Equal(t, ErrWrongPassword, err)
}

func TestAuthService_Login_UnknownMatric(t *testing.T) {
	service, _, cleanup := setupAuthService(t)
	defer cleanup()

	// Same error as a wrong password, account existence is not leaked
	_, err := service.Login(&dto.LoginRequest{
		MatricNumber: "med99999",
		Password:     "password123",
	}, time.Now())
	assert.Equal(t, ErrWrongPassword, err)
}

func TestAuthService_GetUserInfo_WithSubscription(t *testing.T) {
	service, db, cleanup := setupAuthService(t)
	defer cleanup()

	resp, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "med70001",
		Password:     "password123",
	})
	require.NoError(t, err)

	end := time.Now().Add(30 * 24 * time.Hour)
	testutil.TestSubscription(t, db, resp.UserID, testutil.WithActiveUntil(end))

	info, err := service.GetUserInfo(resp.UserID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusActive, info.SubscriptionStatus)
	assert.NotEmpty(t, info.SubscriptionExpiry)
}

func TestAuthService_ChangePassword(t *testing.T) {
	service, _, cleanup := setupAuthService(t)
	defer cleanup()

	resp, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "med80001",
		Password:     "password123",
	})
	require.NoError(t, err)

	err = service.ChangePassword(resp.UserID, &dto.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newpassword1",
	})
	assert.Equal(t, ErrOldPasswordWrong, err)

	err = service.ChangePassword(resp.UserID, &dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword1",
	})
	require.NoError(t, err)

	_, err = service.Login(&dto.LoginRequest{
		MatricNumber: "med80001",
		Password:     "newpassword1",
	}, time.Now())
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	service, db, cleanup := setupAuthService(t)
	defer cleanup()

	resp, err := service.Register(&dto.RegisterRequest{
		Name:         "Ada Bello",
		MatricNumber: "med90001",
		Password:     "password123",
	})
	require.NoError(t, err)

	newName := "Ada B."
	require.NoError(t, service.UpdateProfile(resp.UserID, &dto.UpdateProfileRequest{
		DisplayName: &newName,
	}))

	var user model.User
	require.NoError(t, db.First(&user, resp.UserID).Error)
	assert.Equal(t, "Ada B.", user.DisplayName)
}

func TestAuthService_UpdateProfile_PublishesChange(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	cfg := &config.Config{
		Subscription: config.SubscriptionConfig{DurationDays: 365},
	}
	subService := NewSubscriptionService(subRepo, nil, cfg)
	service := NewAuthService(userRepo, subService, nil, pubsub.NewPublisher(client), cfg)

	user := testutil.TestUser(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *pubsub.ChangeMessage, 1)
	go func() {
		pubsub.NewSubscriber(client).Subscribe(ctx, func(msg *pubsub.ChangeMessage) {
			received <- msg
		})
	}()
	time.Sleep(100 * time.Millisecond)

	newName := "Renamed"
	require.NoError(t, service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		DisplayName: &newName,
	}))

	select {
	case msg := <-received:
		assert.Equal(t, pubsub.TypeProfileChange, msg.Type)
		assert.Equal(t, user.ID, msg.UserID)
		assert.Equal(t, pubsub.SourceProfile, msg.Source)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for profile change message")
	}
}

func TestAuthService_IsAdmin(t *testing.T) {
	service, db, cleanup := setupAuthService(t)
	defer cleanup()

	regular := testutil.TestUser(t, db)
	admin := testutil.TestUser(t, db, testutil.WithAdmin())

	isAdmin, err := service.IsAdmin(regular.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	isAdmin, err = service.IsAdmin(admin.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// Unknown user is simply not an admin
	isAdmin, err = service.IsAdmin(99999)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}
