package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=100"`
	MatricNumber string `json:"matric_number" binding:"required,min=3,max=50"`
	Email        string `json:"email" binding:"omitempty,email"`
	Password     string `json:"password" binding:"required,min=8,max=32"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

// LoginRequest 登录请求（学号 + 密码）
type LoginRequest struct {
	MatricNumber string `json:"matric_number" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID                 int64  `json:"id"`
	DisplayName        string `json:"display_name"`
	MatricNumber       string `json:"matric_number"`
	Email              string `json:"email,omitempty"`
	AvatarURL          string `json:"avatar_url"`
	SubscriptionStatus string `json:"subscription_status"`
	SubscriptionExpiry string `json:"subscription_expiry,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=2,max=100"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=32"`
}
