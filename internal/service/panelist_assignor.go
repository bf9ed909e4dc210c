package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
)

// errPanelAlreadyClaimed 并发分配时条件更新未命中
var errPanelAlreadyClaimed = errors.New("答辩委员已分配")

// PanelistAssignor 按角色为学生分配答辩委员
type PanelistAssignor interface {
	// Propose 根据最新开题计算委员名单，不落库
	Propose(ctx context.Context, student *model.Student, excludeAdvisorID string) ([]model.StudentPanelist, error)
	// Assign 为学生落库委员名单，仅执行一次；已分配时直接返回已有名单
	Assign(ctx context.Context, studentID string) ([]model.StudentPanelist, error)
}

type panelistAssignor struct {
	repo     *repository.Repository
	expander TermExpander
	cfg      *config.PanelConfig
	logger   *zap.Logger
}

// NewPanelistAssignor 创建 PanelistAssignor 实例
func NewPanelistAssignor(cfg *config.PanelConfig, repo *repository.Repository, expander TermExpander, logger *zap.Logger) PanelistAssignor {
	return &panelistAssignor{repo: repo, expander: expander, cfg: cfg, logger: logger}
}

// ────────────────────── Propose ──────────────────────

func (p *panelistAssignor) Propose(ctx context.Context, student *model.Student, excludeAdvisorID string) ([]model.StudentPanelist, error) {
	proposal, err := p.repo.Proposal.GetLatestByStudent(ctx, student.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.StudentPanelist{}, nil
		}
		p.logger.Error("查询开题记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	terms, err := p.expander.Expand(ctx, []string{proposal.Title, proposal.Text})
	if err != nil {
		return nil, err
	}

	advisors, err := p.repo.Advisor.ListApproved(ctx)
	if err != nil {
		p.logger.Error("查询导师列表失败", zap.Error(err))
		return nil, err
	}

	// 委员不受名额限制
	candidates := matchAdvisors(advisors, compileTermPatterns(terms), func(a *model.Advisor) bool {
		return a.AdvisorID == excludeAdvisorID
	})

	assigned := make(map[string]struct{})
	panel := make([]model.StudentPanelist, 0, len(model.PanelRoles))
	add := func(a model.Advisor, role string, fallback bool) {
		assigned[a.AdvisorID] = struct{}{}
		advisor := a
		panel = append(panel, model.StudentPanelist{
			StudentID:  student.StudentID,
			AdvisorID:  a.AdvisorID,
			Role:       role,
			IsFallback: fallback,
			Position:   len(panel),
			Advisor:    &advisor,
		})
	}

	for _, role := range model.PanelRoles {
		filled := false
		for _, c := range candidates {
			if _, ok := assigned[c.Advisor.AdvisorID]; ok || c.Advisor.Role != role {
				continue
			}
			add(c.Advisor, role, false)
			filled = true
			break
		}
		if filled {
			continue
		}

		// 角色无人匹配：放宽角色限制补位
		fills := 0
		for _, c := range candidates {
			if fills >= p.cfg.FallbackLimit {
				break
			}
			if _, ok := assigned[c.Advisor.AdvisorID]; ok {
				continue
			}
			add(c.Advisor, role, true)
			fills++
		}
	}

	return panel, nil
}

// ────────────────────── Assign ──────────────────────

func (p *panelistAssignor) Assign(ctx context.Context, studentID string) ([]model.StudentPanelist, error) {
	student, err := p.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.PanelAssignedAt != nil {
		return student.Panelists, nil
	}

	exclude := ""
	if student.ChosenAdvisorID != nil {
		exclude = *student.ChosenAdvisorID
	}
	panel, err := p.Propose(ctx, student, exclude)
	if err != nil {
		return nil, err
	}

	err = p.repo.WithTx(ctx, func(tx *repository.Repository) error {
		claimed, err := tx.Student.ClaimPanelAssignment(ctx, studentID, time.Now())
		if err != nil {
			return err
		}
		if !claimed {
			return errPanelAlreadyClaimed
		}
		return tx.Student.AddPanelists(ctx, panel)
	})
	if err != nil && !errors.Is(err, errPanelAlreadyClaimed) {
		p.logger.Error("保存答辩委员失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if err == nil {
		p.logger.Info("答辩委员分配完成",
			zap.String("student_id", studentID),
			zap.Int("panel_size", len(panel)),
		)
	}

	return p.repo.Student.ListPanelists(ctx, studentID)
}
