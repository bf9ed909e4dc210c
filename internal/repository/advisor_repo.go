package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thesis-hub/backend/internal/model"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// AdvisorRepository 导师数据访问接口
type AdvisorRepository interface {
	Create(ctx context.Context, advisor *model.Advisor) error
	GetByID(ctx context.Context, id string) (*model.Advisor, error)
	GetByEmail(ctx context.Context, email string) (*model.Advisor, error)
	List(ctx context.Context, offset, limit int) ([]model.Advisor, int64, error)
	// ListApproved 按稳定的枚举顺序（创建时间、ID）返回全部已审核导师
	ListApproved(ctx context.Context) ([]model.Advisor, error)
	// Update 名额低于当前已接收人数时返回 ErrCapacityExceeded
	Update(ctx context.Context, advisor *model.Advisor) error
	// AcceptStudent 原子地登记接收学生并占用名额
	// 已接收过该学生时返回 (false, nil)；名额已满返回 ErrCapacityExceeded
	AcceptStudent(ctx context.Context, advisorID, studentID string) (bool, error)
}

type advisorRepo struct {
	db *gorm.DB
}

// NewAdvisorRepo 创建 AdvisorRepository 实例
func NewAdvisorRepo(db *gorm.DB) AdvisorRepository {
	return &advisorRepo{db: db}
}

func (r *advisorRepo) Create(ctx context.Context, advisor *model.Advisor) error {
	return r.db.WithContext(ctx).Create(advisor).Error
}

func (r *advisorRepo) GetByID(ctx context.Context, id string) (*model.Advisor, error) {
	var advisor model.Advisor
	err := r.db.WithContext(ctx).
		Preload("AcceptedStudents", func(db *gorm.DB) *gorm.DB {
			return db.Order("accepted_at ASC")
		}).
		Where("advisor_id = ?", id).
		First(&advisor).Error
	if err != nil {
		return nil, err
	}
	return &advisor, nil
}

func (r *advisorRepo) GetByEmail(ctx context.Context, email string) (*model.Advisor, error) {
	var advisor model.Advisor
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&advisor).Error
	if err != nil {
		return nil, err
	}
	return &advisor, nil
}

func (r *advisorRepo) List(ctx context.Context, offset, limit int) ([]model.Advisor, int64, error) {
	var advisors []model.Advisor
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Advisor{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at ASC, advisor_id ASC").
		Find(&advisors).Error; err != nil {
		return nil, 0, err
	}

	return advisors, total, nil
}

func (r *advisorRepo) ListApproved(ctx context.Context) ([]model.Advisor, error) {
	var advisors []model.Advisor
	err := r.db.WithContext(ctx).
		Where("is_approved = ?", true).
		Order("created_at ASC, advisor_id ASC").
		Find(&advisors).Error
	return advisors, err
}

// Update 乐观锁更新；设置名额时同一条语句内要求 accepted_count <= 新名额，
// 避免读取后并发接收的学生使名额低于已接收人数。名额条件未命中返回 ErrCapacityExceeded
func (r *advisorRepo) Update(ctx context.Context, advisor *model.Advisor) error {
	oldVersion := advisor.Version
	query := r.db.WithContext(ctx).
		Model(&model.Advisor{}).
		Where("advisor_id = ? AND version = ?", advisor.AdvisorID, oldVersion)
	if advisor.Capacity != nil {
		query = query.Where("accepted_count <= ?", *advisor.Capacity)
	}
	result := query.Updates(map[string]interface{}{
		"name":            advisor.Name,
		"specializations": advisor.Specializations,
		"role":            advisor.Role,
		"capacity":        advisor.Capacity,
		"is_approved":     advisor.IsApproved,
		"updated_by":      advisor.UpdatedBy,
		"updated_at":      time.Now(),
		"version":         oldVersion + 1,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.updateMissReason(ctx, advisor.AdvisorID, oldVersion)
	}
	advisor.Version = oldVersion + 1
	return nil
}

// updateMissReason 区分版本冲突与名额条件未命中
func (r *advisorRepo) updateMissReason(ctx context.Context, advisorID string, version int) error {
	var current model.Advisor
	err := r.db.WithContext(ctx).
		Select("version").
		Where("advisor_id = ?", advisorID).
		First(&current).Error
	if err != nil {
		return err
	}
	if current.Version == version {
		return pkgerrors.ErrCapacityExceeded
	}
	return pkgerrors.ErrOptimisticLock
}

// AcceptStudent 须在事务内调用：名额检查失败时依赖回滚撤销已插入的接收记录
func (r *advisorRepo) AcceptStudent(ctx context.Context, advisorID, studentID string) (bool, error) {
	inserted := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.AdvisorAcceptedStudent{
			AdvisorID:  advisorID,
			StudentID:  studentID,
			AcceptedAt: time.Now(),
		})
	if inserted.Error != nil {
		return false, inserted.Error
	}
	if inserted.RowsAffected == 0 {
		return false, nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.Advisor{}).
		Where("advisor_id = ? AND (capacity IS NULL OR accepted_count < capacity)", advisorID).
		UpdateColumn("accepted_count", gorm.Expr("accepted_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, pkgerrors.ErrCapacityExceeded
	}
	return true, nil
}
