package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
)

// ProposalService 开题提交与导师推荐
type ProposalService interface {
	// Submit 保存开题并返回候选导师；无候选时仍返回已保存的开题记录与扩展词
	Submit(ctx context.Context, studentID string, req *dto.SubmitProposalRequest) (*dto.SubmitProposalResponse, error)
	List(ctx context.Context, studentID string) ([]dto.ProposalResponse, error)
}

type proposalService struct {
	repo     *repository.Repository
	expander TermExpander
	matcher  AdvisorMatcher
	logger   *zap.Logger
}

// NewProposalService 创建 ProposalService 实例
func NewProposalService(repo *repository.Repository, expander TermExpander, matcher AdvisorMatcher, logger *zap.Logger) ProposalService {
	return &proposalService{repo: repo, expander: expander, matcher: matcher, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *proposalService) Submit(ctx context.Context, studentID string, req *dto.SubmitProposalRequest) (*dto.SubmitProposalResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	proposal := &model.Proposal{
		StudentID: studentID,
		Title:     strings.TrimSpace(req.Title),
		Text:      strings.TrimSpace(req.Text),
	}
	if err := s.repo.Proposal.Create(ctx, proposal); err != nil {
		s.logger.Error("保存开题失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	terms, err := s.expander.Expand(ctx, []string{proposal.Title, proposal.Text})
	if err != nil {
		return nil, err
	}

	resp := &dto.SubmitProposalResponse{
		Proposal:       toProposalResponse(proposal),
		Terms:          terms,
		RankedAdvisors: []dto.AdvisorMatchResponse{},
	}

	matches, err := s.matcher.Rank(ctx, terms, student.DeclinedAdvisorIDs())
	if err != nil {
		return resp, err
	}

	for _, m := range matches {
		resp.RankedAdvisors = append(resp.RankedAdvisors, dto.AdvisorMatchResponse{
			AdvisorID:              m.Advisor.AdvisorID,
			Name:                   m.Advisor.Name,
			MatchPercentage:        m.MatchPercentage,
			Specializations:        []string(m.Advisor.Specializations),
			MatchedSpecializations: m.MatchedSpecializations,
		})
	}

	s.logger.Info("开题已提交",
		zap.String("student_id", studentID),
		zap.Int("terms", len(terms)),
		zap.Int("candidates", len(matches)),
	)
	return resp, nil
}

// ────────────────────── List ──────────────────────

func (s *proposalService) List(ctx context.Context, studentID string) ([]dto.ProposalResponse, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	proposals, err := s.repo.Proposal.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询开题记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		result = append(result, toProposalResponse(&proposals[i]))
	}
	return result, nil
}

func toProposalResponse(p *model.Proposal) dto.ProposalResponse {
	return dto.ProposalResponse{
		ID:          p.ProposalID,
		Title:       p.Title,
		Text:        p.Text,
		SubmittedAt: p.SubmittedAt.Format(timeLayout),
	}
}
