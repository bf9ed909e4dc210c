package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thesis-hub/backend/internal/model"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	List(ctx context.Context, offset, limit int) ([]model.Student, int64, error)
	// UpdateAdvisorSelection 乐观锁更新 chosen_advisor_id / advisor_status
	UpdateAdvisorSelection(ctx context.Context, student *model.Student) error
	// AddDeclinedAdvisor 幂等追加被拒记录，返回是否新插入
	AddDeclinedAdvisor(ctx context.Context, studentID, advisorID string) (bool, error)
	// ClaimPanelAssignment 条件更新 panel_assigned_at IS NULL，返回是否抢占成功
	ClaimPanelAssignment(ctx context.Context, studentID string, at time.Time) (bool, error)
	AddPanelists(ctx context.Context, panelists []model.StudentPanelist) error
	ListPanelists(ctx context.Context, studentID string) ([]model.StudentPanelist, error)
	// SetManuscriptStatus 无条件覆盖论文状态
	SetManuscriptStatus(ctx context.Context, studentID, status string) error
	// TransitionManuscriptStatus 仅当当前状态为 from 时更新为 to，返回是否命中
	TransitionManuscriptStatus(ctx context.Context, studentID, from, to string) (bool, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("ChosenAdvisor").
		Preload("DeclinedAdvisors", func(db *gorm.DB) *gorm.DB {
			return db.Order("declined_at ASC")
		}).
		Preload("Panelists", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Panelists.Advisor").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) UpdateAdvisorSelection(ctx context.Context, student *model.Student) error {
	oldVersion := student.Version
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ? AND version = ?", student.StudentID, oldVersion).
		Updates(map[string]interface{}{
			"chosen_advisor_id": student.ChosenAdvisorID,
			"advisor_status":    student.AdvisorStatus,
			"updated_by":        student.UpdatedBy,
			"updated_at":        time.Now(),
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	student.Version = oldVersion + 1
	return nil
}

func (r *studentRepo) AddDeclinedAdvisor(ctx context.Context, studentID, advisorID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.StudentDeclinedAdvisor{
			StudentID:  studentID,
			AdvisorID:  advisorID,
			DeclinedAt: time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *studentRepo) ClaimPanelAssignment(ctx context.Context, studentID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ? AND panel_assigned_at IS NULL", studentID).
		UpdateColumn("panel_assigned_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *studentRepo) AddPanelists(ctx context.Context, panelists []model.StudentPanelist) error {
	if len(panelists) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&panelists).Error
}

func (r *studentRepo) ListPanelists(ctx context.Context, studentID string) ([]model.StudentPanelist, error) {
	var panelists []model.StudentPanelist
	err := r.db.WithContext(ctx).
		Preload("Advisor").
		Where("student_id = ?", studentID).
		Order("position ASC").
		Find(&panelists).Error
	return panelists, err
}

func (r *studentRepo) SetManuscriptStatus(ctx context.Context, studentID, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", studentID).
		UpdateColumns(map[string]interface{}{
			"manuscript_status": status,
			"updated_at":        time.Now(),
		}).Error
}

func (r *studentRepo) TransitionManuscriptStatus(ctx context.Context, studentID, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ? AND manuscript_status = ?", studentID, from).
		UpdateColumns(map[string]interface{}{
			"manuscript_status": to,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
