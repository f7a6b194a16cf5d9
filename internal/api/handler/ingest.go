package handler

import (
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/internal/api/middleware"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

// 批量导入文件大小上限
const maxUploadSize = 10 << 20 // 10MB

type IngestHandler struct {
	ingestService *service.IngestService
}

func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
	}
}

// Upload 批量导入题目（JSON 请求体）
// POST /api/v1/admin/questions/upload
func (h *IngestHandler) Upload(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UploadQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	h.run(c, adminID, &req)
}

// UploadFile 批量导入题目（.json 文件）
// POST /api/v1/admin/questions/upload-file
// 表单字段：file（JSON 文件）、subject_id、block_id（可选）
func (h *IngestHandler) UploadFile(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传文件")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		response.ParamError(c, "文件过大，最大支持 10MB")
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".json" {
		response.ParamError(c, "仅支持 JSON 格式")
		return
	}

	subjectID := c.PostForm("subject_id")
	if subjectID == "" {
		response.ParamError(c, "缺少 subject_id")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return
	}

	// 文件内容既可以是题目数组，也可以是带 questions 字段的对象
	var questions []dto.RawQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		var wrapped struct {
			Questions []dto.RawQuestion `json:"questions"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || len(wrapped.Questions) == 0 {
			response.ParamError(c, "JSON 解析失败，请检查文件格式")
			return
		}
		questions = wrapped.Questions
	}

	h.run(c, adminID, &dto.UploadQuestionsRequest{
		SubjectID: subjectID,
		BlockID:   c.PostForm("block_id"),
		Questions: questions,
	})
}

func (h *IngestHandler) run(c *gin.Context, adminID int64, req *dto.UploadQuestionsRequest) {
	resp, err := h.ingestService.Upload(adminID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBatch):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUnknownSubject):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUnknownBlock):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
