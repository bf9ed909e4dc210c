package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
	"thesis-hub/backend/pkg/response"
)

// SelectionHandler 选择导师与导师答复 HTTP 处理器
type SelectionHandler struct {
	selectionSvc service.SelectionService
}

// NewSelectionHandler 创建 SelectionHandler
func NewSelectionHandler(selectionSvc service.SelectionService) *SelectionHandler {
	return &SelectionHandler{selectionSvc: selectionSvc}
}

// ChooseAdvisor 学生选择导师，返回所选导师与答辩委员预览
// POST /api/v1/students/:id/advisor
func (h *SelectionHandler) ChooseAdvisor(c *gin.Context) {
	studentID, ok := mustParam(c, "id", "学生ID不能为空")
	if !ok {
		return
	}
	if !MustBeSelfOrAdmin(c, studentID) {
		return
	}

	var req dto.ChooseAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.selectionSvc.ChooseAdvisor(c.Request.Context(), studentID, req.AdvisorID)
	if err != nil {
		handleSelectionError(c, err)
		return
	}

	response.OK(c, result)
}

// Respond 导师答复学生申请（accepted / declined）
// POST /api/v1/advisor-requests/:studentId/respond
func (h *SelectionHandler) Respond(c *gin.Context) {
	studentID, ok := mustParam(c, "studentId", "学生ID不能为空")
	if !ok {
		return
	}

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	advisorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.selectionSvc.Respond(c.Request.Context(), advisorID, studentID, req.Decision)
	if err != nil {
		handleSelectionError(c, err)
		return
	}

	response.OK(c, result)
}

// handleSelectionError 统一处理选择导师模块业务错误
func handleSelectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 20001, "学生不存在")
	case errors.Is(err, service.ErrAdvisorNotFound):
		response.NotFound(c, 21001, "导师不存在")
	case errors.Is(err, service.ErrAdvisorAlreadyChosen):
		response.Conflict(c, 22003, "已选择导师，需被拒绝后才能重新选择")
	case errors.Is(err, service.ErrAdvisorPreviouslyDeclined):
		response.Conflict(c, 22004, "该导师已拒绝过此学生")
	case errors.Is(err, service.ErrAdvisorNotApproved):
		response.Conflict(c, 22005, "导师尚未通过审核")
	case errors.Is(err, service.ErrAdvisorAtCapacity):
		response.Conflict(c, 22006, "导师名额已满")
	case errors.Is(err, service.ErrNoPendingRequest):
		response.Conflict(c, 22007, "没有待答复的导师申请")
	case errors.Is(err, service.ErrCapacityExceeded):
		response.Conflict(c, 22008, "导师名额已满，无法接收")
	case errors.Is(err, service.ErrInvalidDecision):
		response.BadRequest(c, 22009, "答复只能是 accepted 或 declined")
	default:
		handleKindError(c, err)
	}
}
