package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/internal/api/middleware"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

// Start 开始测验
// POST /api/v1/quiz/start
func (h *QuizHandler) Start(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.StartQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	view, err := h.quizService.Start(userID, req.Selections, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoQuestions):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, view)
}

// Current 当前会话状态
// GET /api/v1/quiz/session
func (h *QuizHandler) Current(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	view, err := h.quizService.Current(userID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, view)
}

// SubmitAnswer 提交当前题目答案
// POST /api/v1/quiz/answer
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.quizService.SubmitAnswer(userID, req.OptionIndex, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrSessionDone):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrAlreadyAnswered):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrInvalidOption):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrNoAnswerChosen):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Advance 前进到下一题，最后一题时交卷
// POST /api/v1/quiz/next
func (h *QuizHandler) Advance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	view, result, err := h.quizService.Advance(c.Request.Context(), userID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrSessionDone):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{
		"session": view,
		"result":  result,
	})
}

// Previous 回看上一题
// POST /api/v1/quiz/previous
func (h *QuizHandler) Previous(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	view, err := h.quizService.Previous(userID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, view)
}

// Complete 手动交卷
// POST /api/v1/quiz/complete
func (h *QuizHandler) Complete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	result, err := h.quizService.Complete(c.Request.Context(), userID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, result)
}

// Abandon 放弃当前会话
// POST /api/v1/quiz/abandon
func (h *QuizHandler) Abandon(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	h.quizService.Abandon(userID)
	response.SuccessWithMessage(c, "已退出测验", nil)
}

// History 历史成绩
// GET /api/v1/quiz/results?limit=20
func (h *QuizHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	items, err := h.quizService.History(userID, limit)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}
