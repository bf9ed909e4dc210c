package repository

import (
	"context"

	"gorm.io/gorm"

	"thesis-hub/backend/internal/model"
)

// ProposalRepository 开题记录数据访问接口（只追加）
type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.Proposal) error
	ListByStudent(ctx context.Context, studentID string) ([]model.Proposal, error)
	GetLatestByStudent(ctx context.Context, studentID string) (*model.Proposal, error)
}

type proposalRepo struct {
	db *gorm.DB
}

// NewProposalRepo 创建 ProposalRepository 实例
func NewProposalRepo(db *gorm.DB) ProposalRepository {
	return &proposalRepo{db: db}
}

func (r *proposalRepo) Create(ctx context.Context, proposal *model.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Proposal, error) {
	var proposals []model.Proposal
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&proposals).Error
	return proposals, err
}

func (r *proposalRepo) GetLatestByStudent(ctx context.Context, studentID string) (*model.Proposal, error) {
	var proposal model.Proposal
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}
