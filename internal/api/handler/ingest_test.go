package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/medquiz_go_server/config"
	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/repository"
	"github.com/qs3c/medquiz_go_server/internal/service"
	"github.com/qs3c/medquiz_go_server/internal/testutil"
)

func setupIngestHandler(t *testing.T) (*IngestHandler, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		Quiz: config.QuizConfig{
			MaxErrorsShown: 10,
		},
	}

	questionRepo := repository.NewQuestionRepository(db)
	ingestService := service.NewIngestService(questionRepo, nil, cfg)
	handler := NewIngestHandler(ingestService)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return handler, db, cleanup
}

func letteredRaw(question string, correct int) dto.RawQuestion {
	return dto.RawQuestion{
		Question:      question,
		OptionA:       "Option A",
		OptionB:       "Option B",
		OptionC:       "Option C",
		OptionD:       "Option D",
		CorrectAnswer: &correct,
		CategoryID:    "basic-medical-sciences",
		SubjectID:     "anatomy",
	}
}

func TestIngestHandler_Upload_Success(t *testing.T) {
	handler, db, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload", withUserID(1), handler.Upload)

	w := performRequest(router, "POST", "/upload", dto.UploadQuestionsRequest{
		SubjectID: "anatomy",
		BlockID:   "upper-limb",
		Questions: []dto.RawQuestion{
			letteredRaw("Which nerve innervates the deltoid?", 2),
			letteredRaw("Which bone forms the shoulder blade?", 1),
		},
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["success_count"])
	assert.Equal(t, float64(0), data["failed_count"])

	var count int64
	db.Model(&model.Question{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestIngestHandler_Upload_PartialFailure(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload", withUserID(1), handler.Upload)

	bad := letteredRaw("Broken row", 5) // correct_answer 超出 1-4

	w := performRequest(router, "POST", "/upload", dto.UploadQuestionsRequest{
		SubjectID: "anatomy",
		Questions: []dto.RawQuestion{
			letteredRaw("Valid row", 1),
			bad,
		},
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["success_count"])
	assert.Equal(t, float64(1), data["failed_count"])

	errs := data["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, float64(2), errs[0].(map[string]interface{})["position"])
}

func TestIngestHandler_Upload_UnknownSubject(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload", withUserID(1), handler.Upload)

	w := performRequest(router, "POST", "/upload", dto.UploadQuestionsRequest{
		SubjectID: "astrology",
		Questions: []dto.RawQuestion{letteredRaw("Q", 1)},
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestIngestHandler_Upload_EmptyQuestions(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload", withUserID(1), handler.Upload)

	// binding:"min=1" 在绑定阶段拦下
	w := performRequest(router, "POST", "/upload", map[string]interface{}{
		"subject_id": "anatomy",
		"questions":  []interface{}{},
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func multipartUpload(t *testing.T, router *gin.Engine, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/upload-file", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestHandler_UploadFile_ArrayBody(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload-file", withUserID(1), handler.UploadFile)

	content, err := json.Marshal([]dto.RawQuestion{
		letteredRaw("Q1", 1),
		letteredRaw("Q2", 3),
	})
	require.NoError(t, err)

	w := multipartUpload(t, router, "questions.json", content, map[string]string{
		"subject_id": "anatomy",
		"block_id":   "upper-limb",
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["success_count"])
}

func TestIngestHandler_UploadFile_WrappedBody(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload-file", withUserID(1), handler.UploadFile)

	content, err := json.Marshal(map[string]interface{}{
		"questions": []dto.RawQuestion{letteredRaw("Q1", 1)},
	})
	require.NoError(t, err)

	w := multipartUpload(t, router, "questions.json", content, map[string]string{
		"subject_id": "anatomy",
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
}

func TestIngestHandler_UploadFile_WrongExtension(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload-file", withUserID(1), handler.UploadFile)

	w := multipartUpload(t, router, "questions.csv", []byte("a,b,c"), map[string]string{
		"subject_id": "anatomy",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestIngestHandler_UploadFile_MissingSubject(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload-file", withUserID(1), handler.UploadFile)

	w := multipartUpload(t, router, "questions.json", []byte("[]"), nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestIngestHandler_UploadFile_BadJSON(t *testing.T) {
	handler, _, cleanup := setupIngestHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/upload-file", withUserID(1), handler.UploadFile)

	w := multipartUpload(t, router, "questions.json", []byte("{not json"), map[string]string{
		"subject_id": "anatomy",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}
