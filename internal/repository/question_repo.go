package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/internal/model"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) CreateBatch(questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}

// FetchForSelection 按科目（可选块）取题，数量受 limit 约束
func (r *QuestionRepository) FetchForSelection(subjectID, blockID string, limit int) ([]model.Question, error) {
	query := r.db.Where("subject_id = ?", subjectID)
	if blockID != "" {
		query = query.Where("block_id = ?", blockID)
	}

	var questions []model.Question
	err := query.Limit(limit).Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) CountBySubject(subjectID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Question{}).Where("subject_id = ?", subjectID).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) CountByBlock(subjectID, blockID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Question{}).
		Where("subject_id = ? AND block_id = ?", subjectID, blockID).
		Count(&count).Error
	return count, err
}
