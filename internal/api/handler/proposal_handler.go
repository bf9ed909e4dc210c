package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
	"thesis-hub/backend/pkg/response"
)

// ProposalHandler 开题模块 HTTP 处理器
type ProposalHandler struct {
	proposalSvc service.ProposalService
}

// NewProposalHandler 创建 ProposalHandler
func NewProposalHandler(proposalSvc service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalSvc: proposalSvc}
}

// SubmitProposal 提交开题并返回候选导师
// POST /api/v1/students/:id/proposals
func (h *ProposalHandler) SubmitProposal(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}
	if !MustBeSelfOrAdmin(c, studentID) {
		return
	}

	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.proposalSvc.Submit(c.Request.Context(), studentID, &req)
	if err != nil {
		handleProposalError(c, err, result)
		return
	}

	response.Created(c, result)
}

// ListProposals 获取学生的开题历史（最新在前）
// GET /api/v1/students/:id/proposals
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}

	proposals, err := h.proposalSvc.List(c.Request.Context(), studentID)
	if err != nil {
		handleProposalError(c, err, nil)
		return
	}

	response.OK(c, gin.H{"list": proposals})
}

// handleProposalError 无候选导师时开题已保存，连同扩展词一并返回
func handleProposalError(c *gin.Context, err error, result *dto.SubmitProposalResponse) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 20001, "学生不存在")
	case errors.Is(err, service.ErrNoMatchingAdvisors):
		response.ErrorWithData(c, http.StatusNotFound, 22001, "没有研究方向匹配的导师", result)
	case errors.Is(err, service.ErrNoAvailableAdvisors):
		response.ErrorWithData(c, http.StatusNotFound, 22002, "匹配的导师名额均已满", result)
	default:
		handleKindError(c, err)
	}
}
