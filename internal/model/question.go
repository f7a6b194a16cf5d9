package model

import (
	"time"
)

// Question 题目。correct_option 统一为 0-3 下标，导入时完成进制转换
type Question struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	OptionA       string    `gorm:"type:text;not null" json:"option_a"`
	OptionB       string    `gorm:"type:text;not null" json:"option_b"`
	OptionC       string    `gorm:"type:text;not null" json:"option_c"`
	OptionD       string    `gorm:"type:text;not null" json:"option_d"`
	CorrectOption int       `gorm:"not null" json:"correct_option"` // 0-3
	Explanation   string    `gorm:"type:text" json:"explanation,omitempty"`
	CategoryID    string    `gorm:"size:50;not null;index" json:"category_id"`
	SubjectID     string    `gorm:"size:50;not null;index" json:"subject_id"`
	BlockID       *string   `gorm:"size:50;index" json:"block_id,omitempty"`
	Difficulty    string    `gorm:"size:20;default:medium" json:"difficulty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// Options 按 A-D 顺序返回四个选项
func (q *Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}
