package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/internal/model"
)

type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Create(result *model.QuizResult) error {
	return r.db.Create(result).Error
}

func (r *ResultRepository) ListByUserID(userID int64, limit int) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}
