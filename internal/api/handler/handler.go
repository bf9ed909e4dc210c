package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/service"
	pkgerrors "thesis-hub/backend/pkg/errors"
	"thesis-hub/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Student    *StudentHandler
	Advisor    *AdvisorHandler
	Proposal   *ProposalHandler
	Selection  *SelectionHandler
	Manuscript *ManuscriptHandler
	Synonym    *SynonymHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Student:    NewStudentHandler(svc.Student),
		Advisor:    NewAdvisorHandler(svc.Advisor, cfg.Import.MaxUploadBytes),
		Proposal:   NewProposalHandler(svc.Proposal),
		Selection:  NewSelectionHandler(svc.Selection),
		Manuscript: NewManuscriptHandler(svc.Manuscript),
		Synonym:    NewSynonymHandler(svc.Synonym),
	}
}

// handleKindError 未单独映射的业务错误按分类兜底
func handleKindError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 10006, "资源不存在", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10007, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrPrecondition):
		response.ErrorWithDetails(c, http.StatusConflict, 10008, "前置条件不满足", err.Error())
	case errors.Is(err, pkgerrors.ErrNoCandidates):
		response.ErrorWithDetails(c, http.StatusNotFound, 10009, "无匹配候选", err.Error())
	default:
		response.InternalError(c)
	}
}
