package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/medquiz_go_server/internal/pkg/response"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// Categories 题库目录（分类 → 科目 → 块，含实际题量）
// GET /api/v1/catalog/categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	response.Success(c, h.catalogService.Categories())
}
