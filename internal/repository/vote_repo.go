package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thesis-hub/backend/internal/model"
)

// VoteRepository 答辩投票数据访问接口
type VoteRepository interface {
	// Add 依赖唯一键去重，返回是否为新票
	Add(ctx context.Context, vote *model.ManuscriptVote) (bool, error)
	CountByTarget(ctx context.Context, studentID, targetStatus string) (int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.ManuscriptVote, error)
	DeleteByStudent(ctx context.Context, studentID string) error
}

type voteRepo struct {
	db *gorm.DB
}

// NewVoteRepo 创建 VoteRepository 实例
func NewVoteRepo(db *gorm.DB) VoteRepository {
	return &voteRepo{db: db}
}

func (r *voteRepo) Add(ctx context.Context, vote *model.ManuscriptVote) (bool, error) {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *voteRepo) CountByTarget(ctx context.Context, studentID, targetStatus string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ManuscriptVote{}).
		Where("student_id = ? AND target_status = ?", studentID, targetStatus).
		Count(&count).Error
	return count, err
}

func (r *voteRepo) ListByStudent(ctx context.Context, studentID string) ([]model.ManuscriptVote, error) {
	var votes []model.ManuscriptVote
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&votes).Error
	return votes, err
}

func (r *voteRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.ManuscriptVote{}).Error
}
