package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// ── 选导师模块业务错误 ──

var (
	ErrAdvisorAlreadyChosen      = fmt.Errorf("%w: 已选择导师，需被拒绝后才能重新选择", pkgerrors.ErrPrecondition)
	ErrAdvisorPreviouslyDeclined = fmt.Errorf("%w: 该导师已拒绝过此学生", pkgerrors.ErrPrecondition)
	ErrAdvisorNotApproved        = fmt.Errorf("%w: 导师尚未通过审核", pkgerrors.ErrPrecondition)
	ErrAdvisorAtCapacity         = fmt.Errorf("%w: 导师名额已满", pkgerrors.ErrPrecondition)
	ErrNoPendingRequest          = fmt.Errorf("%w: 没有待答复的导师申请", pkgerrors.ErrPrecondition)
	ErrCapacityExceeded          = fmt.Errorf("%w: 导师名额已满，无法接收", pkgerrors.ErrPrecondition)
	ErrInvalidDecision           = fmt.Errorf("%w: 答复只能是 accepted 或 declined", pkgerrors.ErrPrecondition)
)

// SelectionService 学生选导师与导师答复
type SelectionService interface {
	ChooseAdvisor(ctx context.Context, studentID, advisorID string) (*dto.ChooseAdvisorResponse, error)
	Respond(ctx context.Context, advisorID, studentID, decision string) (*dto.MessageResponse, error)
}

type selectionService struct {
	repo     *repository.Repository
	assignor PanelistAssignor
	logger   *zap.Logger
}

// NewSelectionService 创建 SelectionService 实例
func NewSelectionService(repo *repository.Repository, assignor PanelistAssignor, logger *zap.Logger) SelectionService {
	return &selectionService{repo: repo, assignor: assignor, logger: logger}
}

// ────────────────────── ChooseAdvisor ──────────────────────

func (s *selectionService) ChooseAdvisor(ctx context.Context, studentID, advisorID string) (*dto.ChooseAdvisorResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	// none → pending；declined → pending 允许重新选择
	switch student.AdvisorStatus {
	case model.AdvisorStatusNone, model.AdvisorStatusDeclined:
	default:
		return nil, ErrAdvisorAlreadyChosen
	}

	advisor, err := s.repo.Advisor.GetByID(ctx, advisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdvisorNotFound
		}
		s.logger.Error("查询导师失败", zap.String("id", advisorID), zap.Error(err))
		return nil, err
	}
	if student.HasDeclined(advisorID) {
		return nil, ErrAdvisorPreviouslyDeclined
	}
	if !advisor.IsApproved {
		return nil, ErrAdvisorNotApproved
	}
	if !advisor.HasCapacity() {
		return nil, ErrAdvisorAtCapacity
	}

	student.ChosenAdvisorID = &advisorID
	student.AdvisorStatus = model.AdvisorStatusPending
	if err := s.repo.Student.UpdateAdvisorSelection(ctx, student); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新导师选择失败", zap.String("student_id", studentID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("学生选择导师",
		zap.String("student_id", studentID),
		zap.String("advisor_id", advisorID),
	)

	// 委员名单预览，导师接收后才落库
	panel, err := s.assignor.Propose(ctx, student, advisorID)
	if err != nil {
		return nil, err
	}

	return &dto.ChooseAdvisorResponse{
		Advisor:   *toAdvisorResponse(advisor),
		Panelists: toPanelistResponses(panel),
	}, nil
}

// ────────────────────── Respond ──────────────────────

func (s *selectionService) Respond(ctx context.Context, advisorID, studentID, decision string) (*dto.MessageResponse, error) {
	if decision != dto.DecisionAccepted && decision != dto.DecisionDeclined {
		return nil, ErrInvalidDecision
	}

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	chosen := student.ChosenAdvisorID != nil && *student.ChosenAdvisorID == advisorID

	// 重复答复：已生效的决定再次提交视为成功
	if decision == dto.DecisionDeclined && !chosen && student.HasDeclined(advisorID) {
		return &dto.MessageResponse{Message: "已拒绝该学生"}, nil
	}
	if !chosen {
		return nil, ErrNoPendingRequest
	}
	if student.AdvisorStatus == model.AdvisorStatusAccepted && decision == dto.DecisionAccepted {
		// 补齐可能未完成的委员分配
		if _, err := s.assignor.Assign(ctx, studentID); err != nil {
			return nil, err
		}
		return &dto.MessageResponse{Message: "已接收该学生"}, nil
	}
	if student.AdvisorStatus != model.AdvisorStatusPending {
		return nil, ErrNoPendingRequest
	}

	if decision == dto.DecisionAccepted {
		return s.accept(ctx, student, advisorID)
	}
	return s.decline(ctx, student, advisorID)
}

func (s *selectionService) accept(ctx context.Context, student *model.Student, advisorID string) (*dto.MessageResponse, error) {
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Advisor.AcceptStudent(ctx, advisorID, student.StudentID); err != nil {
			return err
		}
		student.AdvisorStatus = model.AdvisorStatusAccepted
		return tx.Student.UpdateAdvisorSelection(ctx, student)
	})
	if err != nil {
		student.AdvisorStatus = model.AdvisorStatusPending
		if errors.Is(err, pkgerrors.ErrCapacityExceeded) {
			return nil, ErrCapacityExceeded
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("接收学生失败",
				zap.String("student_id", student.StudentID),
				zap.String("advisor_id", advisorID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("导师接收学生",
		zap.String("student_id", student.StudentID),
		zap.String("advisor_id", advisorID),
	)

	if _, err := s.assignor.Assign(ctx, student.StudentID); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: "已接收该学生"}, nil
}

func (s *selectionService) decline(ctx context.Context, student *model.Student, advisorID string) (*dto.MessageResponse, error) {
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Student.AddDeclinedAdvisor(ctx, student.StudentID, advisorID); err != nil {
			return err
		}
		student.AdvisorStatus = model.AdvisorStatusDeclined
		student.ChosenAdvisorID = nil
		return tx.Student.UpdateAdvisorSelection(ctx, student)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("拒绝学生失败",
				zap.String("student_id", student.StudentID),
				zap.String("advisor_id", advisorID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("导师拒绝学生",
		zap.String("student_id", student.StudentID),
		zap.String("advisor_id", advisorID),
	)
	return &dto.MessageResponse{Message: "已拒绝该学生"}, nil
}
