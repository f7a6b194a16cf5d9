package model

import (
	"time"
)

// QuizResult 测验结果，只增不改
type QuizResult struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"not null;index" json:"user_id"`
	CategoryID      string    `gorm:"size:50;not null" json:"category_id"`
	SubjectIDs      string    `gorm:"size:500" json:"subject_ids"` // 逗号分隔
	TotalQuestions  int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers  int       `gorm:"not null" json:"correct_answers"`
	ScorePercentage float64   `gorm:"not null" json:"score_percentage"`
	TimeTakenSecs   int       `gorm:"column:time_taken_seconds;not null" json:"time_taken_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
