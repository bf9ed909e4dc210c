package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
	"thesis-hub/backend/pkg/jwt"
)

// ── 论文状态模块业务错误 ──

var (
	ErrInvalidTransition  = fmt.Errorf("%w: 不允许的论文状态变更", pkgerrors.ErrPrecondition)
	ErrNotAssignedAdvisor = fmt.Errorf("%w: 仅该学生的指导导师可操作", pkgerrors.ErrPrecondition)
	ErrInvalidVoteTarget  = fmt.Errorf("%w: 投票目标只能是 RevisionByPanel 或 ApprovedByPanel", pkgerrors.ErrPrecondition)
	ErrNotReadyToDefend   = fmt.Errorf("%w: 论文未处于待答辩状态", pkgerrors.ErrPrecondition)
	ErrAlreadyVoted       = fmt.Errorf("%w: 已对该目标状态投过票", pkgerrors.ErrPrecondition)
	ErrNotPanelist        = fmt.Errorf("%w: 仅答辩委员可投票", pkgerrors.ErrPrecondition)
	ErrVoterNotAdvisor    = fmt.Errorf("%w: 投票人不是已审核的导师", pkgerrors.ErrPrecondition)
	ErrStatusChanged      = fmt.Errorf("%w: 论文状态已被其他操作修改，请刷新后重试", pkgerrors.ErrPrecondition)
)

// ManuscriptService 论文状态机
type ManuscriptService interface {
	SetStatus(ctx context.Context, studentID, callerID, callerRole, status string) (*dto.ManuscriptStatusResponse, error)
	// CastVote 只要学生存在，无论成功或被拒绝都返回剩余票数
	CastVote(ctx context.Context, studentID, voterID, target string) (*dto.VoteResultResponse, error)
	ResetVotes(ctx context.Context, studentID, callerID, callerRole string) (*dto.ManuscriptStatusResponse, error)
	GetVoteTally(ctx context.Context, studentID string) (*dto.VoteTallyResponse, error)
}

type manuscriptService struct {
	repo   *repository.Repository
	cfg    *config.ManuscriptConfig
	logger *zap.Logger
}

// NewManuscriptService 创建 ManuscriptService 实例
func NewManuscriptService(cfg *config.ManuscriptConfig, repo *repository.Repository, logger *zap.Logger) ManuscriptService {
	return &manuscriptService{repo: repo, cfg: cfg, logger: logger}
}

// isDirectStatus 导师可直接设置的状态
func isDirectStatus(status string) bool {
	switch status {
	case model.ManuscriptStatusNone, model.ManuscriptStatusRevisionByAdvisor, model.ManuscriptStatusReadyToDefend:
		return true
	}
	return false
}

// isVoteTarget 投票决定的状态
func isVoteTarget(status string) bool {
	return status == model.ManuscriptStatusRevisionByPanel || status == model.ManuscriptStatusApprovedByPanel
}

func (s *manuscriptService) getStudent(ctx context.Context, studentID string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}
	return student, nil
}

// isAssignedAdvisor 调用者是否为已接收该学生的导师
func isAssignedAdvisor(student *model.Student, callerID string) bool {
	return student.AdvisorStatus == model.AdvisorStatusAccepted &&
		student.ChosenAdvisorID != nil && *student.ChosenAdvisorID == callerID
}

// ────────────────────── SetStatus ──────────────────────

func (s *manuscriptService) SetStatus(ctx context.Context, studentID, callerID, callerRole, status string) (*dto.ManuscriptStatusResponse, error) {
	if !isDirectStatus(status) {
		return nil, ErrInvalidTransition
	}

	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if callerRole != jwt.RoleAdmin && !isAssignedAdvisor(student, callerID) {
		return nil, ErrNotAssignedAdvisor
	}

	current := student.ManuscriptStatus
	if !isDirectStatus(current) {
		return nil, ErrInvalidTransition
	}
	if current == status {
		return &dto.ManuscriptStatusResponse{Status: status}, nil
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Student.TransitionManuscriptStatus(ctx, studentID, current, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStatusChanged
		}
		// 离开待答辩状态时清空两组投票
		if current == model.ManuscriptStatusReadyToDefend {
			return tx.Vote.DeleteByStudent(ctx, studentID)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStatusChanged) {
			s.logger.Error("修改论文状态失败", zap.String("student_id", studentID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("论文状态变更",
		zap.String("student_id", studentID),
		zap.String("from", current),
		zap.String("to", status),
		zap.String("by", callerID),
	)
	return &dto.ManuscriptStatusResponse{Status: status}, nil
}

// ────────────────────── CastVote ──────────────────────

func (s *manuscriptService) CastVote(ctx context.Context, studentID, voterID, target string) (*dto.VoteResultResponse, error) {
	if !isVoteTarget(target) {
		return nil, ErrInvalidVoteTarget
	}

	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	result := &dto.VoteResultResponse{
		Status:    student.ManuscriptStatus,
		Target:    target,
		Threshold: s.threshold(target, student),
	}
	report := func(cause error) (*dto.VoteResultResponse, error) {
		count, err := s.repo.Vote.CountByTarget(ctx, studentID, target)
		if err != nil {
			s.logger.Error("统计投票失败", zap.String("student_id", studentID), zap.Error(err))
			return nil, err
		}
		result.Votes = int(count)
		result.RemainingVotes = remainingVotes(result.Threshold, result.Votes, result.Status == target)
		return result, cause
	}

	if err := s.checkVoter(ctx, student, voterID); err != nil {
		if !errors.Is(err, pkgerrors.ErrPrecondition) {
			return nil, err
		}
		return report(err)
	}
	if student.ManuscriptStatus != model.ManuscriptStatusReadyToDefend {
		return report(ErrNotReadyToDefend)
	}

	added, err := s.repo.Vote.Add(ctx, &model.ManuscriptVote{
		StudentID:    studentID,
		TargetStatus: target,
		VoterID:      voterID,
	})
	if err != nil {
		s.logger.Error("记录投票失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if !added {
		return report(ErrAlreadyVoted)
	}

	count, err := s.repo.Vote.CountByTarget(ctx, studentID, target)
	if err != nil {
		s.logger.Error("统计投票失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result.Votes = int(count)

	if result.Votes >= result.Threshold {
		// 条件更新保证流转只触发一次
		ok, err := s.repo.Student.TransitionManuscriptStatus(ctx, studentID, model.ManuscriptStatusReadyToDefend, target)
		if err != nil {
			s.logger.Error("投票触发状态流转失败", zap.String("student_id", studentID), zap.Error(err))
			return nil, err
		}
		result.Transitioned = ok
		if ok {
			result.Status = target
			s.logger.Info("投票达到阈值，论文状态流转",
				zap.String("student_id", studentID),
				zap.String("to", target),
				zap.Int("votes", result.Votes),
			)
		} else if latest, err := s.repo.Student.GetByID(ctx, studentID); err == nil {
			result.Status = latest.ManuscriptStatus
		}
	}

	result.RemainingVotes = remainingVotes(result.Threshold, result.Votes, result.Status == target)
	return result, nil
}

// checkVoter 投票人资格：panel_only_voting 时仅限委员与指导导师，否则须为已审核导师
func (s *manuscriptService) checkVoter(ctx context.Context, student *model.Student, voterID string) error {
	if s.cfg.PanelOnlyVoting {
		if student.IsPanelist(voterID) || isAssignedAdvisor(student, voterID) {
			return nil
		}
		return ErrNotPanelist
	}

	advisor, err := s.repo.Advisor.GetByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoterNotAdvisor
		}
		s.logger.Error("查询投票人失败", zap.String("voter_id", voterID), zap.Error(err))
		return err
	}
	if !advisor.IsApproved {
		return ErrVoterNotAdvisor
	}
	return nil
}

// threshold 目标状态所需票数；panel_size 模式下等于委员人数（至少 1）
func (s *manuscriptService) threshold(target string, student *model.Student) int {
	if s.cfg.ThresholdMode == config.ThresholdModePanelSize {
		if n := len(student.Panelists); n > 0 {
			return n
		}
		return 1
	}
	if target == model.ManuscriptStatusApprovedByPanel {
		return s.cfg.ApprovalThreshold
	}
	return s.cfg.RevisionThreshold
}

func remainingVotes(threshold, votes int, reached bool) int {
	if reached || votes >= threshold {
		return 0
	}
	return threshold - votes
}

// ────────────────────── ResetVotes ──────────────────────

func (s *manuscriptService) ResetVotes(ctx context.Context, studentID, callerID, callerRole string) (*dto.ManuscriptStatusResponse, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if callerRole != jwt.RoleAdmin && !isAssignedAdvisor(student, callerID) && !student.IsPanelist(callerID) {
		return nil, ErrNotAssignedAdvisor
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Vote.DeleteByStudent(ctx, studentID); err != nil {
			return err
		}
		return tx.Student.SetManuscriptStatus(ctx, studentID, model.ManuscriptStatusReadyToDefend)
	})
	if err != nil {
		s.logger.Error("重置投票失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("投票已重置",
		zap.String("student_id", studentID),
		zap.String("previous_status", student.ManuscriptStatus),
		zap.String("by", callerID),
	)
	return &dto.ManuscriptStatusResponse{Status: model.ManuscriptStatusReadyToDefend}, nil
}

// ────────────────────── GetVoteTally ──────────────────────

func (s *manuscriptService) GetVoteTally(ctx context.Context, studentID string) (*dto.VoteTallyResponse, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	votes, err := s.repo.Vote.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询投票失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	set := func(target string) dto.VoteSetResponse {
		voters := []string{}
		for _, v := range votes {
			if v.TargetStatus == target {
				voters = append(voters, v.VoterID)
			}
		}
		threshold := s.threshold(target, student)
		return dto.VoteSetResponse{
			Target:    target,
			Threshold: threshold,
			Remaining: remainingVotes(threshold, len(voters), student.ManuscriptStatus == target),
			Voters:    voters,
		}
	}

	return &dto.VoteTallyResponse{
		Status:   student.ManuscriptStatus,
		Revision: set(model.ManuscriptStatusRevisionByPanel),
		Approval: set(model.ManuscriptStatusApprovedByPanel),
	}, nil
}
