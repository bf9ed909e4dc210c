package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/api/middleware"
	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
	"thesis-hub/backend/pkg/response"
)

// AdvisorHandler 导师模块 HTTP 处理器
type AdvisorHandler struct {
	advisorSvc     service.AdvisorService
	maxUploadBytes int64
}

// NewAdvisorHandler 创建 AdvisorHandler
func NewAdvisorHandler(advisorSvc service.AdvisorService, maxUploadBytes int64) *AdvisorHandler {
	return &AdvisorHandler{advisorSvc: advisorSvc, maxUploadBytes: maxUploadBytes}
}

// CreateAdvisor 创建导师
// POST /api/v1/advisors
func (h *AdvisorHandler) CreateAdvisor(c *gin.Context) {
	var req dto.CreateAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	advisor, err := h.advisorSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleAdvisorError(c, err)
		return
	}

	response.Created(c, advisor)
}

// ListAdvisors 获取导师列表
// GET /api/v1/advisors
func (h *AdvisorHandler) ListAdvisors(c *gin.Context) {
	var req dto.AdvisorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	advisors, total, err := h.advisorSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, advisors, total, req.GetPage(), req.GetPageSize())
}

// GetAdvisor 获取导师详情
// GET /api/v1/advisors/:id
func (h *AdvisorHandler) GetAdvisor(c *gin.Context) {
	id, ok := mustParam(c, "id", "导师ID不能为空")
	if !ok {
		return
	}

	advisor, err := h.advisorSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleAdvisorError(c, err)
		return
	}

	response.OK(c, advisor)
}

// UpdateAdvisor 更新导师（研究方向、角色、名额、审核状态）
// PUT /api/v1/advisors/:id
func (h *AdvisorHandler) UpdateAdvisor(c *gin.Context) {
	id, ok := mustParam(c, "id", "导师ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	advisor, err := h.advisorSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleAdvisorError(c, err)
		return
	}

	response.OK(c, advisor)
}

// ImportAdvisors 批量导入导师名册
// POST /api/v1/advisors/import
//   - multipart/form-data, field="file"，仅支持 .xlsx
func (h *AdvisorHandler) ImportAdvisors(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "上传文件过大")
			return
		}
		response.BadRequest(c, 21004, "请上传导师名册文件（字段名 file）")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		response.BadRequest(c, 21005, "仅支持 .xlsx 文件")
		return
	}

	rows, err := h.advisorSvc.ParseImportFile(file)
	if err != nil {
		handleAdvisorError(c, err)
		return
	}

	result, err := h.advisorSvc.ImportAdvisors(c.Request.Context(), rows, callerID)
	if err != nil {
		handleAdvisorError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAdvisorError 统一处理导师模块业务错误
func handleAdvisorError(c *gin.Context, err error) {
	var tooMany *service.ErrImportTooManyRows
	switch {
	case errors.Is(err, service.ErrAdvisorNotFound):
		response.NotFound(c, 21001, "导师不存在")
	case errors.Is(err, service.ErrAdvisorEmailExists):
		response.Conflict(c, 21002, "邮箱已被使用")
	case errors.Is(err, service.ErrCapacityBelowCount):
		response.Conflict(c, 21003, "名额不能小于已接收学生数")
	case errors.Is(err, service.ErrImportUnreadable),
		errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 21006, err.Error())
	case errors.As(err, &tooMany):
		response.BadRequest(c, 21007, tooMany.Error())
	default:
		handleKindError(c, err)
	}
}
