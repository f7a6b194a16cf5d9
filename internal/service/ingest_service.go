package service

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/oss"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

var (
	ErrEmptyBatch     = errors.New("导入列表为空")
	ErrUnknownSubject = errors.New("科目不存在")
	ErrUnknownBlock   = errors.New("所选科目下不存在该块")
)

type IngestService struct {
	questionRepo *repository.QuestionRepository
	ossClient    *oss.Client // 可为 nil，归档失败不影响导入
	cfg          *config.Config
}

func NewIngestService(questionRepo *repository.QuestionRepository, ossClient *oss.Client, cfg *config.Config) *IngestService {
	return &IngestService{
		questionRepo: questionRepo,
		ossClient:    ossClient,
		cfg:          cfg,
	}
}

// Upload 批量导入题目。逐条校验，合法的入库，非法的记入错误列表；
// 单条失败不影响其余记录。计数覆盖整批，错误列表超限截断
func (s *IngestService) Upload(adminID int64, req *dto.UploadQuestionsRequest) (*dto.UploadQuestionsResponse, error) {
	if len(req.Questions) == 0 {
		return nil, ErrEmptyBatch
	}

	categoryID, _, ok := model.FindSubject(req.SubjectID)
	if !ok {
		return nil, ErrUnknownSubject
	}
	if req.BlockID != "" && !model.BlockInSubject(req.SubjectID, req.BlockID) {
		return nil, ErrUnknownBlock
	}

	valid := make([]model.Question, 0, len(req.Questions))
	var ingestErrors []dto.IngestError

	for i, raw := range req.Questions {
		q, err := s.convert(&raw, categoryID, req.SubjectID, req.BlockID)
		if err != nil {
			ingestErrors = append(ingestErrors, dto.IngestError{
				Position: i + 1,
				Message:  err.Error(),
			})
			continue
		}
		valid = append(valid, *q)
	}

	if err := s.questionRepo.CreateBatch(valid); err != nil {
		return nil, err
	}

	resp := &dto.UploadQuestionsResponse{
		SuccessCount: len(valid),
		FailedCount:  len(ingestErrors),
		Errors:       ingestErrors,
	}
	if max := s.cfg.Quiz.MaxErrorsShown; max > 0 && len(resp.Errors) > max {
		resp.Errors = resp.Errors[:max]
	}

	resp.ArchiveURL = s.archive(adminID, req)
	return resp, nil
}

// convert 单条记录转换为题目实体。按字段出现区分两种外部格式：
// 数组格式的归属取管理端选择的目标科目/块，字母格式的归属取记录自带字段
func (s *IngestService) convert(raw *dto.RawQuestion, categoryID, subjectID, blockID string) (*model.Question, error) {
	if strings.TrimSpace(raw.Question) == "" {
		return nil, errors.New("缺少题干")
	}

	q := &model.Question{
		Question:    strings.TrimSpace(raw.Question),
		Explanation: strings.TrimSpace(raw.Explanation),
		Difficulty:  normalizeDifficulty(raw.Difficulty),
	}

	if len(raw.Options) > 0 || raw.Answer != nil {
		q.CategoryID = categoryID
		q.SubjectID = subjectID
		if blockID != "" {
			q.BlockID = &blockID
		}
		if err := fillFromOptionsShape(q, raw); err != nil {
			return nil, err
		}
	} else {
		if err := applyRecordPlacement(q, raw); err != nil {
			return nil, err
		}
		if err := fillFromLetteredShape(q, raw); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// applyRecordPlacement 字母格式要求记录自带 category_id/subject_id，
// 并按目录校验归属关系；block_id 可选，出现时必须属于记录的科目
func applyRecordPlacement(q *model.Question, raw *dto.RawQuestion) error {
	categoryID := strings.TrimSpace(raw.CategoryID)
	subjectID := strings.TrimSpace(raw.SubjectID)
	if categoryID == "" {
		return errors.New("缺少 category_id")
	}
	if subjectID == "" {
		return errors.New("缺少 subject_id")
	}

	wantCategory, _, ok := model.FindSubject(subjectID)
	if !ok {
		return errors.New("subject_id 不存在")
	}
	if wantCategory != categoryID {
		return errors.New("category_id 与 subject_id 不匹配")
	}

	q.CategoryID = categoryID
	q.SubjectID = subjectID
	if blockID := strings.TrimSpace(raw.BlockID); blockID != "" {
		if !model.BlockInSubject(subjectID, blockID) {
			return errors.New("block_id 不在该科目下")
		}
		q.BlockID = &blockID
	}
	return nil
}

// fillFromLetteredShape 字母选项格式：option_a..option_d + correct_answer（1-4）
func fillFromLetteredShape(q *model.Question, raw *dto.RawQuestion) error {
	opts := []string{raw.OptionA, raw.OptionB, raw.OptionC, raw.OptionD}
	for _, opt := range opts {
		if strings.TrimSpace(opt) == "" {
			return errors.New("四个选项必须全部填写")
		}
	}
	if raw.CorrectAnswer == nil {
		return errors.New("缺少 correct_answer")
	}
	if *raw.CorrectAnswer < 1 || *raw.CorrectAnswer > 4 {
		return errors.New("correct_answer 必须是 1-4")
	}

	q.OptionA = strings.TrimSpace(raw.OptionA)
	q.OptionB = strings.TrimSpace(raw.OptionB)
	q.OptionC = strings.TrimSpace(raw.OptionC)
	q.OptionD = strings.TrimSpace(raw.OptionD)
	q.CorrectOption = *raw.CorrectAnswer - 1
	return nil
}

// fillFromOptionsShape 选项数组格式：options[4] + answer 文本，
// 答案按去空格、不区分大小写与选项匹配得到下标
func fillFromOptionsShape(q *model.Question, raw *dto.RawQuestion) error {
	if len(raw.Options) != 4 {
		return errors.New("options 必须恰好包含 4 个选项")
	}
	for _, opt := range raw.Options {
		if strings.TrimSpace(opt) == "" {
			return errors.New("四个选项必须全部填写")
		}
	}
	if raw.Answer == nil || strings.TrimSpace(*raw.Answer) == "" {
		return errors.New("缺少 answer")
	}

	want := strings.ToLower(strings.TrimSpace(*raw.Answer))
	index := -1
	for i, opt := range raw.Options {
		if strings.ToLower(strings.TrimSpace(opt)) == want {
			index = i
			break
		}
	}
	if index < 0 {
		return errors.New("answer 与任何选项都不匹配")
	}

	q.OptionA = strings.TrimSpace(raw.Options[0])
	q.OptionB = strings.TrimSpace(raw.Options[1])
	q.OptionC = strings.TrimSpace(raw.Options[2])
	q.OptionD = strings.TrimSpace(raw.Options[3])
	q.CorrectOption = index
	return nil
}

// archive 原始上传内容存档到 OSS，失败只警告
func (s *IngestService) archive(adminID int64, req *dto.UploadQuestionsRequest) string {
	if s.ossClient == nil {
		return ""
	}
	data, err := json.Marshal(req)
	if err != nil {
		log.Printf("Failed to marshal upload archive: %v", err)
		return ""
	}
	key, err := s.ossClient.ArchiveUpload(adminID, data)
	if err != nil {
		log.Printf("Failed to archive upload to OSS: %v", err)
		return ""
	}
	return s.ossClient.GetURL(key)
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}
