package dto

// RawQuestion 批量导入的原始记录，兼容两种外部格式：
//  1. 字母选项格式：option_a..option_d + correct_answer（1-4），
//     归属取记录自带的 category_id/subject_id（block_id 可选）
//  2. 选项数组格式：options[4] + answer（文本匹配），归属取上传目标
//
// 字段按出现与否区分格式，校验在 ingest service 中完成
type RawQuestion struct {
	Question      string   `json:"question"`
	OptionA       string   `json:"option_a"`
	OptionB       string   `json:"option_b"`
	OptionC       string   `json:"option_c"`
	OptionD       string   `json:"option_d"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"` // 1-4
	Options       []string `json:"options,omitempty"`
	Answer        *string  `json:"answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	CategoryID    string   `json:"category_id,omitempty"`
	SubjectID     string   `json:"subject_id,omitempty"`
	BlockID       string   `json:"block_id,omitempty"`
	Difficulty    string   `json:"difficulty_level,omitempty"`
}

// UploadQuestionsRequest 粘贴 JSON 方式的导入请求
type UploadQuestionsRequest struct {
	SubjectID string        `json:"subject_id" binding:"required"`
	BlockID   string        `json:"block_id,omitempty"`
	Questions []RawQuestion `json:"questions" binding:"required,min=1"`
}

// IngestError 单条记录的校验错误，位置从 1 开始计
type IngestError struct {
	Position int    `json:"position"`
	Message  string `json:"message"`
}

// UploadQuestionsResponse 批量导入结果。计数覆盖全部记录，错误列表可能截断
type UploadQuestionsResponse struct {
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Errors       []IngestError `json:"errors,omitempty"`
	ArchiveURL   string        `json:"archive_url,omitempty"`
}
