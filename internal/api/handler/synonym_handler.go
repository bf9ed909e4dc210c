package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
	"thesis-hub/backend/pkg/response"
)

// SynonymHandler 同义词表 HTTP 处理器
type SynonymHandler struct {
	synonymSvc service.SynonymService
}

// NewSynonymHandler 创建 SynonymHandler
func NewSynonymHandler(synonymSvc service.SynonymService) *SynonymHandler {
	return &SynonymHandler{synonymSvc: synonymSvc}
}

// CreateSynonym 新增同义词条目
// POST /api/v1/synonyms
func (h *SynonymHandler) CreateSynonym(c *gin.Context) {
	var req dto.CreateSynonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.synonymSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleSynonymError(c, err)
		return
	}

	response.Created(c, entry)
}

// ListSynonyms 获取同义词列表
// GET /api/v1/synonyms
func (h *SynonymHandler) ListSynonyms(c *gin.Context) {
	var req dto.SynonymListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, total, err := h.synonymSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, entries, total, req.GetPage(), req.GetPageSize())
}

// DeleteSynonym 删除同义词条目
// DELETE /api/v1/synonyms/:id
func (h *SynonymHandler) DeleteSynonym(c *gin.Context) {
	id, ok := mustParam(c, "id", "同义词ID不能为空")
	if !ok {
		return
	}

	if err := h.synonymSvc.Delete(c.Request.Context(), id); err != nil {
		handleSynonymError(c, err)
		return
	}

	response.OK(c, nil)
}

// Expand 预览检索词扩展结果
// GET /api/v1/synonyms/expand?q=
func (h *SynonymHandler) Expand(c *gin.Context) {
	var req dto.ExpandRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.synonymSvc.Expand(c.Request.Context(), req.Q)
	if err != nil {
		handleSynonymError(c, err)
		return
	}

	response.OK(c, result)
}

// handleSynonymError 统一处理同义词模块业务错误
func handleSynonymError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSynonymNotFound):
		response.NotFound(c, 24001, "同义词条目不存在")
	case errors.Is(err, service.ErrSynonymEmptyTerms):
		response.BadRequest(c, 24002, "词条与同义词不能为空")
	default:
		handleKindError(c, err)
	}
}
