package service

import (
	"go.uber.org/zap"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Student    StudentService
	Advisor    AdvisorService
	Proposal   ProposalService
	Selection  SelectionService
	Manuscript ManuscriptService
	Synonym    SynonymService
}

// NewService 创建 Service 聚合，cache 为 nil 时同义词直接查库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache SynonymCache,
	logger *zap.Logger,
) *Service {
	expander := NewTermExpander(&cfg.Matching, repo, cache, logger)
	matcher := NewAdvisorMatcher(&cfg.Matching, repo, logger)
	assignor := NewPanelistAssignor(&cfg.Panel, repo, expander, logger)

	return &Service{
		Student:    NewStudentService(repo, logger),
		Advisor:    NewAdvisorService(&cfg.Import, repo, logger),
		Proposal:   NewProposalService(repo, expander, matcher, logger),
		Selection:  NewSelectionService(repo, assignor, logger),
		Manuscript: NewManuscriptService(&cfg.Manuscript, repo, logger),
		Synonym:    NewSynonymService(repo, cache, expander, logger),
	}
}
