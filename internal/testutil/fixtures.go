package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	matric := fmt.Sprintf("med%d", time.Now().UnixNano()%100000000)
	email := fmt.Sprintf("%s@medquiz.app", matric)
	user := &model.User{
		DisplayName:  fmt.Sprintf("Test User %d", time.Now().UnixNano()%10000),
		MatricNumber: matric,
		Email:        &email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithMatricNumber 设置学号
func WithMatricNumber(matric string) func(*model.User) {
	return func(u *model.User) {
		u.MatricNumber = matric
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = hash
	}
}

// WithAdmin 设置管理员标记
func WithAdmin() func(*model.User) {
	return func(u *model.User) {
		u.IsAdmin = true
	}
}

// TestSubscription 创建测试订阅记录
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		UserID: userID,
		Status: model.SubStatusActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithActiveUntil 付费订阅，有效期至指定时刻
func WithActiveUntil(end time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		start := end.AddDate(0, 0, -365)
		s.Status = model.SubStatusActive
		s.SubscriptionStart = &start
		s.SubscriptionEnd = &end
		s.IsTrial = false
	}
}

// WithTrialUntil 试用订阅，试用期至指定时刻
func WithTrialUntil(end time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = model.SubStatusTrial
		s.IsTrial = true
		s.TrialEnd = &end
	}
}

// WithAmount 设置支付金额（奈拉）
func WithAmount(amount float64) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Amount = &amount
	}
}

// WithReference 设置支付单据号
func WithReference(ref string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.PaymentReference = &ref
	}
}

// TestQuestion 创建测试题目
func TestQuestion(t *testing.T, db *gorm.DB, opts ...func(*model.Question)) *model.Question {
	t.Helper()

	question := &model.Question{
		Question:      fmt.Sprintf("Test question %d?", time.Now().UnixNano()%10000),
		OptionA:       "Option A",
		OptionB:       "Option B",
		OptionC:       "Option C",
		OptionD:       "Option D",
		CorrectOption: 0,
		CategoryID:    "basic-medical-sciences",
		SubjectID:     "anatomy",
		Difficulty:    "medium",
	}

	for _, opt := range opts {
		opt(question)
	}

	if err := db.Create(question).Error; err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return question
}

// WithSubject 设置分类与科目
func WithSubject(categoryID, subjectID string) func(*model.Question) {
	return func(q *model.Question) {
		q.CategoryID = categoryID
		q.SubjectID = subjectID
	}
}

// WithBlock 设置所属块
func WithBlock(blockID string) func(*model.Question) {
	return func(q *model.Question) {
		q.BlockID = &blockID
	}
}

// WithCorrectOption 设置正确选项下标
func WithCorrectOption(index int) func(*model.Question) {
	return func(q *model.Question) {
		q.CorrectOption = index
	}
}

// TestQuestions 批量创建同一科目的测试题目
func TestQuestions(t *testing.T, db *gorm.DB, count int, opts ...func(*model.Question)) []model.Question {
	t.Helper()

	questions := make([]model.Question, 0, count)
	for i := 0; i < count; i++ {
		q := TestQuestion(t, db, opts...)
		questions = append(questions, *q)
	}
	return questions
}

// TestResult 创建测试成绩记录
func TestResult(t *testing.T, db *gorm.DB, userID int64, score float64) *model.QuizResult {
	t.Helper()

	result := &model.QuizResult{
		UserID:          userID,
		CategoryID:      "basic-medical-sciences",
		SubjectIDs:      "anatomy",
		TotalQuestions:  10,
		CorrectAnswers:  int(score / 10),
		ScorePercentage: score,
		TimeTakenSecs:   600,
	}

	if err := db.Create(result).Error; err != nil {
		t.Fatalf("Failed to create test result: %v", err)
	}

	return result
}
