package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/jwt"
	"github.com/qs3c/medquiz_go_server/internal/pkg/pubsub"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

var (
	ErrMatricNumberExists = errors.New("该学号已注册")
	ErrEmailExists        = errors.New("该邮箱已被使用")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrWrongPassword      = errors.New("学号或密码错误")
	ErrOldPasswordWrong   = errors.New("原密码错误")
)

type AuthService struct {
	userRepo   *repository.UserRepository
	subService *SubscriptionService
	email      EmailSender       // 可为 nil
	publisher  *pubsub.Publisher // 可为 nil，通知是尽力而为
	cfg        *config.Config
}

// EmailSender 欢迎邮件发送接口，便于测试替换
type EmailSender interface {
	SendWelcome(to, name string) error
}

func NewAuthService(userRepo *repository.UserRepository, subService *SubscriptionService, email EmailSender, publisher *pubsub.Publisher, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		subService: subService,
		email:      email,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Register 注册。学号唯一；未填邮箱时按学号派生一个占位邮箱
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	matric := strings.TrimSpace(strings.ToLower(req.MatricNumber))

	exists, err := s.userRepo.ExistsByMatricNumber(matric)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrMatricNumberExists
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		email = fmt.Sprintf("%s@medquiz.app", matric)
	} else {
		taken, err := s.userRepo.ExistsByEmail(email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		DisplayName:  strings.TrimSpace(req.Name),
		MatricNumber: matric,
		Email:        &email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	// 欢迎邮件失败不影响注册
	if s.email != nil {
		go func() {
			if err := s.email.SendWelcome(email, user.DisplayName); err != nil {
				log.Printf("Failed to send welcome email to %s: %v", email, err)
			}
		}()
	}

	return &dto.RegisterResponse{UserID: user.ID}, nil
}

// Login 学号 + 密码登录。学号不存在与密码错误返回同一错误，不泄露账户是否存在
func (s *AuthService) Login(req *dto.LoginRequest, now time.Time) (*dto.LoginResponse, error) {
	matric := strings.TrimSpace(strings.ToLower(req.MatricNumber))

	user, err := s.userRepo.GetByMatricNumber(matric)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrWrongPassword
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	info, err := s.buildUserInfo(user, now)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  info,
	}, nil
}

// GetUserInfo 当前用户信息，附实时推导的订阅状态
func (s *AuthService) GetUserInfo(userID int64, now time.Time) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.buildUserInfo(user, now)
}

// UpdateProfile 更新昵称/邮箱，未提供的字段保持原值
func (s *AuthService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) error {
	fields := make(map[string]interface{})

	if req.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		taken, err := s.userRepo.ExistsByEmail(email)
		if err != nil {
			return err
		}
		if taken {
			current, err := s.userRepo.GetByID(userID)
			if err != nil {
				return err
			}
			if current.Email == nil || *current.Email != email {
				return ErrEmailExists
			}
		}
		fields["email"] = email
	}

	if len(fields) == 0 {
		return nil
	}
	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return err
	}

	// 管理端概览据此刷新用户资料
	if s.publisher != nil {
		err := s.publisher.PublishChange(context.Background(), &pubsub.ChangeMessage{
			Type:   pubsub.TypeProfileChange,
			UserID: userID,
			Source: pubsub.SourceProfile,
		})
		if err != nil {
			log.Printf("Failed to publish profile change: %v", err)
		}
	}
	return nil
}

// ChangePassword 修改密码，需验证原密码
func (s *AuthService) ChangePassword(userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(userID, map[string]interface{}{
		"password_hash": string(hash),
	})
}

// IsAdmin 管理员判断，供中间件使用
func (s *AuthService) IsAdmin(userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *AuthService) buildUserInfo(user *model.User, now time.Time) (*dto.UserInfo, error) {
	info := &dto.UserInfo{
		ID:           user.ID,
		DisplayName:  user.DisplayName,
		MatricNumber: user.MatricNumber,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}
	if user.Email != nil {
		info.Email = *user.Email
	}

	status, err := s.subService.Resolve(user.ID, now)
	if err != nil {
		return nil, err
	}
	info.SubscriptionStatus = status.Status
	info.SubscriptionExpiry = status.ExpiresAt
	return info, nil
}
