package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
	"thesis-hub/backend/pkg/response"
)

// ManuscriptHandler 论文状态与答辩投票 HTTP 处理器
type ManuscriptHandler struct {
	manuscriptSvc service.ManuscriptService
}

// NewManuscriptHandler 创建 ManuscriptHandler
func NewManuscriptHandler(manuscriptSvc service.ManuscriptService) *ManuscriptHandler {
	return &ManuscriptHandler{manuscriptSvc: manuscriptSvc}
}

// SetStatus 指导导师直接修改论文状态（none / RevisionByAdvisor / ReadyToDefend）
// PUT /api/v1/students/:id/manuscript-status
func (h *ManuscriptHandler) SetStatus(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}

	var req dto.SetManuscriptStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.manuscriptSvc.SetStatus(c.Request.Context(), studentID, callerID, role, req.Status)
	if err != nil {
		handleManuscriptError(c, err, nil)
		return
	}

	response.OK(c, result)
}

// CastVote 答辩委员投票
// POST /api/v1/students/:id/votes
func (h *ManuscriptHandler) CastVote(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}

	var req dto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	voterID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.manuscriptSvc.CastVote(c.Request.Context(), studentID, voterID, req.Target)
	if err != nil {
		handleManuscriptError(c, err, result)
		return
	}

	response.OK(c, result)
}

// GetVotes 查询投票统计
// GET /api/v1/students/:id/votes
func (h *ManuscriptHandler) GetVotes(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}

	result, err := h.manuscriptSvc.GetVoteTally(c.Request.Context(), studentID)
	if err != nil {
		handleManuscriptError(c, err, nil)
		return
	}

	response.OK(c, result)
}

// ResetVotes 清空投票并回到 ReadyToDefend
// DELETE /api/v1/students/:id/votes
func (h *ManuscriptHandler) ResetVotes(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.manuscriptSvc.ResetVotes(c.Request.Context(), studentID, callerID, role)
	if err != nil {
		handleManuscriptError(c, err, nil)
		return
	}

	response.OK(c, result)
}

// handleManuscriptError 投票被拒绝时仍返回当前票数与剩余票数
func handleManuscriptError(c *gin.Context, err error, result *dto.VoteResultResponse) {
	reject := func(status, code int, message string) {
		if result != nil {
			response.ErrorWithData(c, status, code, message, result)
			return
		}
		response.Error(c, status, code, message)
	}

	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 20001, "学生不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 23001, "不允许的论文状态变更")
	case errors.Is(err, service.ErrNotAssignedAdvisor):
		response.Forbidden(c, 23002, "仅该学生的指导导师可操作")
	case errors.Is(err, service.ErrInvalidVoteTarget):
		response.BadRequest(c, 23003, "投票目标只能是 RevisionByPanel 或 ApprovedByPanel")
	case errors.Is(err, service.ErrNotReadyToDefend):
		reject(http.StatusConflict, 23004, "论文未处于待答辩状态")
	case errors.Is(err, service.ErrAlreadyVoted):
		reject(http.StatusConflict, 23005, "已对该目标状态投过票")
	case errors.Is(err, service.ErrNotPanelist):
		reject(http.StatusForbidden, 23006, "仅答辩委员可投票")
	case errors.Is(err, service.ErrVoterNotAdvisor):
		reject(http.StatusForbidden, 23007, "投票人不是已审核的导师")
	case errors.Is(err, service.ErrStatusChanged):
		response.Conflict(c, 23008, "论文状态已被其他操作修改，请刷新后重试")
	default:
		handleKindError(c, err)
	}
}
