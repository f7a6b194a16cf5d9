package dto

// QuizSelection 用户在开始测验前选择的科目/块及题量
type QuizSelection struct {
	SubjectID     string `json:"subject_id" binding:"required"`
	BlockID       string `json:"block_id,omitempty"`
	QuestionCount int    `json:"question_count" binding:"required,min=1"`
}

// StartQuizRequest 开始测验请求
type StartQuizRequest struct {
	Selections []QuizSelection `json:"selections" binding:"required,min=1,dive"`
}

// QuestionView 展示给考生的题目（不含正确答案）
type QuestionView struct {
	ID         int64    `json:"id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	SubjectID  string   `json:"subject_id"`
	CategoryID string   `json:"category_id"`
	Difficulty string   `json:"difficulty"`
}

// SessionView 测验会话状态
type SessionView struct {
	SessionID        string        `json:"session_id"`
	TotalQuestions   int           `json:"total_questions"`
	Position         int           `json:"position"`
	AnsweredCount    int           `json:"answered_count"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Completed        bool          `json:"completed"`
	Question         *QuestionView `json:"question,omitempty"`
}

// SubmitAnswerRequest 提交答案请求，选项为 0-3 下标
type SubmitAnswerRequest struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// SubmitAnswerResponse 提交答案响应，附解析供前端展示
type SubmitAnswerResponse struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectOption int    `json:"correct_option"`
	Explanation   string `json:"explanation,omitempty"`
}

// ResultHistoryItem 历史成绩列表行
type ResultHistoryItem struct {
	ID              int64   `json:"id"`
	CategoryID      string  `json:"category_id"`
	SubjectIDs      string  `json:"subject_ids"`
	TotalQuestions  int     `json:"total_questions"`
	CorrectAnswers  int     `json:"correct_answers"`
	ScorePercentage float64 `json:"score_percentage"`
	TimeTakenSecs   int     `json:"time_taken_seconds"`
	CompletedAt     string  `json:"completed_at"`
}

// QuizResultView 测验结果
type QuizResultView struct {
	TotalQuestions  int     `json:"total_questions"`
	CorrectAnswers  int     `json:"correct_answers"`
	ScorePercentage float64 `json:"score_percentage"`
	TimeTakenSecs   int     `json:"time_taken_seconds"`
	Persisted       bool    `json:"persisted"` // 落库失败时为 false，结果仍然返回
}
