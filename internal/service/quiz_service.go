package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/queue"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

var (
	ErrNoQuestions     = errors.New("所选科目暂无题目")
	ErrNoSession       = errors.New("没有进行中的测验")
	ErrSessionDone     = errors.New("测验已结束")
	ErrAlreadyAnswered = errors.New("该题已作答，答案不可修改")
	ErrInvalidOption   = errors.New("选项超出范围")
	ErrNoAnswerChosen  = errors.New("未选择任何选项")
)

// answer 已记录的作答，提交后不可变
type answer struct {
	questionID int64
	selected   int
	isCorrect  bool
}

// session 一次测验会话。题目列表在 start 时抓取并洗牌后固定不变
type session struct {
	id         string
	userID     int64
	questions  []model.Question
	position   int
	answers    map[int64]*answer
	categoryID string
	subjectIDs []string
	startedAt  time.Time
	deadline   time.Time
	duration   time.Duration

	// 一次性完成标记：定时器到点与手动交卷可能竞争，结果只落一份
	completed bool
	result    *dto.QuizResultView

	mu sync.Mutex
}

type QuizService struct {
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	retryQueue   *queue.Queue // 可为 nil
	cfg          *config.Config

	// 每用户同时只保留一个会话，重新开始即丢弃旧会话
	sessions map[int64]*session
	mu       sync.RWMutex
}

func NewQuizService(questionRepo *repository.QuestionRepository, resultRepo *repository.ResultRepository, retryQueue *queue.Queue, cfg *config.Config) *QuizService {
	return &QuizService{
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		retryQueue:   retryQueue,
		cfg:          cfg,
		sessions:     make(map[int64]*session),
	}
}

// Start 按选择抓题、洗牌并创建会话。组合列表为空时启动失败
func (s *QuizService) Start(userID int64, selections []dto.QuizSelection, now time.Time) (*dto.SessionView, error) {
	var all []model.Question
	subjectIDs := make([]string, 0, len(selections))

	for _, sel := range selections {
		questions, err := s.questionRepo.FetchForSelection(sel.SubjectID, sel.BlockID, sel.QuestionCount)
		if err != nil {
			return nil, err
		}
		all = append(all, questions...)
		subjectIDs = append(subjectIDs, sel.SubjectID)
	}

	if len(all) == 0 {
		return nil, ErrNoQuestions
	}

	shuffleQuestions(all)

	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	duration := time.Duration(s.cfg.Quiz.DurationMinutes) * time.Minute
	sess := &session{
		id:         id,
		userID:     userID,
		questions:  all,
		answers:    make(map[int64]*answer),
		categoryID: categoryForSelections(selections),
		subjectIDs: subjectIDs,
		startedAt:  now,
		deadline:   now.Add(duration),
		duration:   duration,
	}

	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()

	return sess.view(now), nil
}

// Current 返回当前会话状态（含当前题目）
func (s *QuizService) Current(userID int64, now time.Time) (*dto.SessionView, error) {
	sess, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked(now), nil
}

// SubmitAnswer 记录当前题目的作答。每题只能作答一次，提交后不自动前进，
// 前端先展示解析，之后显式调用 Advance
func (s *QuizService) SubmitAnswer(userID int64, optionIndex *int, now time.Time) (*dto.SubmitAnswerResponse, error) {
	sess, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	if optionIndex == nil {
		return nil, ErrNoAnswerChosen
	}
	if *optionIndex < 0 || *optionIndex > 3 {
		return nil, ErrInvalidOption
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.completed || !now.Before(sess.deadline) {
		return nil, ErrSessionDone
	}

	q := &sess.questions[sess.position]
	if _, answered := sess.answers[q.ID]; answered {
		return nil, ErrAlreadyAnswered
	}

	isCorrect := *optionIndex == q.CorrectOption
	sess.answers[q.ID] = &answer{
		questionID: q.ID,
		selected:   *optionIndex,
		isCorrect:  isCorrect,
	}

	return &dto.SubmitAnswerResponse{
		IsCorrect:     isCorrect,
		CorrectOption: q.CorrectOption,
		Explanation:   q.Explanation,
	}, nil
}

// Advance 前进到下一题；已是最后一题时触发交卷
func (s *QuizService) Advance(ctx context.Context, userID int64, now time.Time) (*dto.SessionView, *dto.QuizResultView, error) {
	sess, err := s.get(userID)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.completed {
		return nil, nil, ErrSessionDone
	}

	if sess.position >= len(sess.questions)-1 {
		result := s.completeLocked(ctx, sess, now)
		return sess.viewLocked(now), result, nil
	}

	sess.position++
	return sess.viewLocked(now), nil, nil
}

// Previous 回看上一题。已作答的题目只读，不允许重新作答
func (s *QuizService) Previous(userID int64, now time.Time) (*dto.SessionView, error) {
	sess, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.position > 0 {
		sess.position--
	}
	return sess.viewLocked(now), nil
}

// Remaining 剩余秒数，由截止时刻实时推导
func (s *QuizService) Remaining(userID int64, now time.Time) (int, error) {
	sess, err := s.get(userID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.remainingSeconds(now), nil
}

// Complete 手动交卷。与定时器到点竞争时只产生一份结果
func (s *QuizService) Complete(ctx context.Context, userID int64, now time.Time) (*dto.QuizResultView, error) {
	sess, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.completeLocked(ctx, sess, now), nil
}

// Abandon 放弃当前会话（导航离开），不产生结果
func (s *QuizService) Abandon(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// SweepExpired 交卷所有超时且未完成的会话，由后台定时调用
func (s *QuizService) SweepExpired(ctx context.Context, now time.Time) int {
	s.mu.RLock()
	expired := make([]*session, 0)
	for _, sess := range s.sessions {
		expired = append(expired, sess)
	}
	s.mu.RUnlock()

	count := 0
	for _, sess := range expired {
		sess.mu.Lock()
		if !sess.completed && !now.Before(sess.deadline) {
			s.completeLocked(ctx, sess, now)
			count++
		}
		sess.mu.Unlock()
	}
	return count
}

// completeLocked 交卷。调用方必须持有 sess.mu。幂等：重复触发返回同一份结果
func (s *QuizService) completeLocked(ctx context.Context, sess *session, now time.Time) *dto.QuizResultView {
	if sess.completed {
		return sess.result
	}
	sess.completed = true

	correct := 0
	for _, a := range sess.answers {
		if a.isCorrect {
			correct++
		}
	}

	total := len(sess.questions)
	// 百分比保留浮点，四舍五入是展示层的事
	score := float64(correct) / float64(total) * 100
	timeTaken := int(sess.duration.Seconds()) - sess.remainingSeconds(now)

	result := &model.QuizResult{
		UserID:          sess.userID,
		CategoryID:      sess.categoryID,
		SubjectIDs:      strings.Join(sess.subjectIDs, ","),
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		ScorePercentage: score,
		TimeTakenSecs:   timeTaken,
	}

	persisted := true
	if err := s.resultRepo.Create(result); err != nil {
		// 落库失败只警告，结果照常返回给用户；丢进重试队列兜底
		persisted = false
		log.Printf("Failed to persist quiz result for user %d: %v", sess.userID, err)
		s.enqueueRetry(ctx, result, now)
	}

	sess.result = &dto.QuizResultView{
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		ScorePercentage: score,
		TimeTakenSecs:   timeTaken,
		Persisted:       persisted,
	}
	return sess.result
}

func (s *QuizService) enqueueRetry(ctx context.Context, result *model.QuizResult, now time.Time) {
	if s.retryQueue == nil {
		return
	}
	err := s.retryQueue.Push(ctx, &queue.ResultMessage{
		UserID:          result.UserID,
		CategoryID:      result.CategoryID,
		SubjectIDs:      result.SubjectIDs,
		TotalQuestions:  result.TotalQuestions,
		CorrectAnswers:  result.CorrectAnswers,
		ScorePercentage: result.ScorePercentage,
		TimeTakenSecs:   result.TimeTakenSecs,
		CompletedAt:     now.Unix(),
	})
	if err != nil {
		log.Printf("Failed to enqueue quiz result retry: %v", err)
	}
}

// History 历史成绩，按完成时间倒序
func (s *QuizService) History(userID int64, limit int) ([]dto.ResultHistoryItem, error) {
	results, err := s.resultRepo.ListByUserID(userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ResultHistoryItem, 0, len(results))
	for _, r := range results {
		items = append(items, dto.ResultHistoryItem{
			ID:              r.ID,
			CategoryID:      r.CategoryID,
			SubjectIDs:      r.SubjectIDs,
			TotalQuestions:  r.TotalQuestions,
			CorrectAnswers:  r.CorrectAnswers,
			ScorePercentage: r.ScorePercentage,
			TimeTakenSecs:   r.TimeTakenSecs,
			CompletedAt:     r.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

// RetryPersist 重试一条落库失败的结果，由后台循环调用
func (s *QuizService) RetryPersist(msg *queue.ResultMessage) error {
	return s.resultRepo.Create(&model.QuizResult{
		UserID:          msg.UserID,
		CategoryID:      msg.CategoryID,
		SubjectIDs:      msg.SubjectIDs,
		TotalQuestions:  msg.TotalQuestions,
		CorrectAnswers:  msg.CorrectAnswers,
		ScorePercentage: msg.ScorePercentage,
		TimeTakenSecs:   msg.TimeTakenSecs,
	})
}

func (s *QuizService) get(userID int64) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (sess *session) view(now time.Time) *dto.SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked(now)
}

func (sess *session) viewLocked(now time.Time) *dto.SessionView {
	v := &dto.SessionView{
		SessionID:        sess.id,
		TotalQuestions:   len(sess.questions),
		Position:         sess.position,
		AnsweredCount:    len(sess.answers),
		RemainingSeconds: sess.remainingSeconds(now),
		Completed:        sess.completed,
	}

	if !sess.completed && sess.position < len(sess.questions) {
		q := &sess.questions[sess.position]
		opts := q.Options()
		v.Question = &dto.QuestionView{
			ID:         q.ID,
			Question:   q.Question,
			Options:    opts[:],
			SubjectID:  q.SubjectID,
			CategoryID: q.CategoryID,
			Difficulty: q.Difficulty,
		}
	}
	return v
}

func (sess *session) remainingSeconds(now time.Time) int {
	remaining := int(sess.deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// shuffleQuestions Fisher–Yates 均匀洗牌
func shuffleQuestions(questions []model.Question) {
	mathrand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

// categoryForSelections 结果行的归类：取首个选择所属分类，混选记 mixed
func categoryForSelections(selections []dto.QuizSelection) string {
	if len(selections) == 0 {
		return "mixed"
	}
	categoryID, _, ok := model.FindSubject(selections[0].SubjectID)
	if !ok {
		return "mixed"
	}
	for _, sel := range selections[1:] {
		cid, _, ok := model.FindSubject(sel.SubjectID)
		if !ok || cid != categoryID {
			return "mixed"
		}
	}
	return categoryID
}

func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
