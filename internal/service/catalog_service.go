package service

import (
	"log"

	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

type CatalogService struct {
	questionRepo *repository.QuestionRepository
}

func NewCatalogService(questionRepo *repository.QuestionRepository) *CatalogService {
	return &CatalogService{questionRepo: questionRepo}
}

// Categories 返回题库目录，题量字段替换为数据库实际统计。
// 统计失败时退回静态参考值，目录本身照常返回
func (s *CatalogService) Categories() []model.Category {
	categories := make([]model.Category, len(model.Categories))
	copy(categories, model.Categories)

	for ci := range categories {
		subjects := make([]model.Subject, len(categories[ci].Subjects))
		copy(subjects, categories[ci].Subjects)
		categories[ci].Subjects = subjects

		for si := range subjects {
			s.overlayCounts(&subjects[si])
		}
	}
	return categories
}

func (s *CatalogService) overlayCounts(subject *model.Subject) {
	count, err := s.questionRepo.CountBySubject(subject.ID)
	if err != nil {
		log.Printf("Failed to count questions for subject %s: %v", subject.ID, err)
		return
	}
	subject.QuestionCount = int(count)

	if len(subject.Blocks) == 0 {
		return
	}
	blocks := make([]model.Block, len(subject.Blocks))
	copy(blocks, subject.Blocks)
	subject.Blocks = blocks

	for bi := range blocks {
		blockCount, err := s.questionRepo.CountByBlock(subject.ID, blocks[bi].ID)
		if err != nil {
			log.Printf("Failed to count questions for block %s/%s: %v", subject.ID, blocks[bi].ID, err)
			continue
		}
		blocks[bi].QuestionCount = int(blockCount)
	}
}
