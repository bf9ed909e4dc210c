package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound    = fmt.Errorf("%w: 学生不存在", pkgerrors.ErrNotFound)
	ErrStudentEmailExists = fmt.Errorf("%w: 邮箱已被使用", pkgerrors.ErrPrecondition)
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// StudentService 学生业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.Student.GetByEmail(ctx, email); err == nil {
		return nil, ErrStudentEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	student := &model.Student{
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		AdvisorStatus:    model.AdvisorStatusNone,
		ManuscriptStatus: model.ManuscriptStatusNone,
	}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Student.GetByID(ctx, student.StudentID)
	if err != nil {
		return nil, err
	}
	return toStudentResponse(created), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *studentService) GetByID(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, total, nil
}

// ── 转换 ──

func toStudentResponse(student *model.Student) *dto.StudentResponse {
	resp := &dto.StudentResponse{
		ID:                 student.StudentID,
		Name:               student.Name,
		Email:              student.Email,
		AdvisorStatus:      student.AdvisorStatus,
		ManuscriptStatus:   student.ManuscriptStatus,
		DeclinedAdvisorIDs: student.DeclinedAdvisorIDs(),
		Panelists:          toPanelistResponses(student.Panelists),
		CreatedAt:          student.CreatedAt.Format(timeLayout),
	}
	if student.ChosenAdvisor != nil {
		resp.ChosenAdvisor = &dto.AdvisorBrief{
			ID:   student.ChosenAdvisor.AdvisorID,
			Name: student.ChosenAdvisor.Name,
		}
	} else if student.ChosenAdvisorID != nil {
		resp.ChosenAdvisor = &dto.AdvisorBrief{ID: *student.ChosenAdvisorID}
	}
	if student.PanelAssignedAt != nil {
		resp.PanelAssignedAt = student.PanelAssignedAt.Format(timeLayout)
	}
	return resp
}

func toPanelistResponses(panelists []model.StudentPanelist) []dto.PanelistResponse {
	result := make([]dto.PanelistResponse, 0, len(panelists))
	for _, p := range panelists {
		item := dto.PanelistResponse{
			AdvisorID:  p.AdvisorID,
			Role:       p.Role,
			IsFallback: p.IsFallback,
		}
		if p.Advisor != nil {
			item.Name = p.Advisor.Name
		}
		result = append(result, item)
	}
	return result
}
